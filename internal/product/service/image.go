package service

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/smallbiznis/storefront/internal/product/domain"
)

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9!#$&^_.+-]+/[a-zA-Z0-9!#$&^_.+-]+)?(;[^,]*)?;base64,`)

const defaultImageType = "application/octet-stream"

// normalizeImage strips any data URI prefix from the payload, checks it decodes and
// resolves the mime type: explicit type first, then the data URI, then content sniffing.
func normalizeImage(p domain.ImagePayload) (domain.Image, error) {
	if p.Path != "" {
		path := p.Path
		typ := p.Type
		if typ == "" {
			typ = defaultImageType
		}
		return domain.Image{Path: &path, Type: typ}, nil
	}

	content := p.Content
	declared := ""
	if m := dataURIPattern.FindStringSubmatch(content); m != nil {
		declared = m[1]
		content = content[len(m[0]):]
	}
	content = strings.Join(strings.Fields(content), "")

	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil || len(decoded) == 0 {
		return domain.Image{}, domain.ErrInvalidImageContent
	}

	typ := p.Type
	if typ == "" {
		typ = declared
	}
	if typ == "" {
		typ = mimetype.Detect(decoded).String()
	}
	return domain.Image{Content: &content, Type: typ}, nil
}

func decodeImage(img *domain.Image) ([]byte, error) {
	if img.Content == nil {
		return nil, domain.ErrImageNotFound
	}
	return base64.StdEncoding.DecodeString(*img.Content)
}
