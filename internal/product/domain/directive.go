package domain

import (
	"strings"
)

// ImageInput is the wire shape of an entry in a product's images list.
type ImageInput struct {
	ID      *ID    `json:"id"`
	Content string `json:"content"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Deleted bool   `json:"deleted"`
}

// OptionInput is the wire shape of an entry in a product's options list.
type OptionInput struct {
	ID      *ID      `json:"id"`
	Title   string   `json:"title"`
	Shape   string   `json:"shape"`
	Type    string   `json:"type"`
	Radius  *int     `json:"radius"`
	Values  []string `json:"values"`
	Deleted bool     `json:"deleted"`
}

// ImageDirective is one of CreateImage, UpdateImage or DeleteImage.
type ImageDirective interface {
	imageDirective()
}

type ImagePayload struct {
	Content string
	Path    string
	Type    string
}

type CreateImage struct {
	ImagePayload
}

type UpdateImage struct {
	ID int64
	ImagePayload
}

type DeleteImage struct {
	ID int64
}

func (CreateImage) imageDirective() {}
func (UpdateImage) imageDirective() {}
func (DeleteImage) imageDirective() {}

// OptionDirective is one of CreateOption, ReplaceOption or DeleteOption.
type OptionDirective interface {
	optionDirective()
}

// OptionGroup is the metadata shared by every value row of an option.
type OptionGroup struct {
	Title  string
	Shape  string
	Type   string
	Radius *int
	Values []string
}

type CreateOption struct {
	OptionGroup
}

// ReplaceOption drops the group that ID belongs to and inserts Values in its place.
// Empty metadata fields inherit from the existing group.
type ReplaceOption struct {
	ID int64
	OptionGroup
}

type DeleteOption struct {
	ID int64
}

func (CreateOption) optionDirective()  {}
func (ReplaceOption) optionDirective() {}
func (DeleteOption) optionDirective()  {}

func ParseImageDirective(in ImageInput) (ImageDirective, error) {
	payload := ImagePayload{
		Content: strings.TrimSpace(in.Content),
		Path:    strings.TrimSpace(in.Path),
		Type:    strings.TrimSpace(in.Type),
	}
	hasPayload := payload.Content != "" || payload.Path != ""
	if payload.Content != "" && payload.Path != "" {
		return nil, ErrInvalidImage
	}

	switch {
	case in.Deleted && in.ID != nil && *in.ID > 0:
		return DeleteImage{ID: in.ID.Int64()}, nil
	case in.Deleted:
		return nil, ErrInvalidImage
	case in.ID != nil && *in.ID > 0 && hasPayload:
		return UpdateImage{ID: in.ID.Int64(), ImagePayload: payload}, nil
	case in.ID == nil && hasPayload:
		return CreateImage{ImagePayload: payload}, nil
	default:
		return nil, ErrInvalidImage
	}
}

func ParseOptionDirective(in OptionInput) (OptionDirective, error) {
	if in.Deleted {
		if in.ID == nil || *in.ID <= 0 {
			return nil, ErrInvalidOption
		}
		return DeleteOption{ID: in.ID.Int64()}, nil
	}

	group, err := normalizeGroup(in, in.ID != nil)
	if err != nil {
		return nil, err
	}
	if in.ID != nil {
		if *in.ID <= 0 {
			return nil, ErrInvalidOption
		}
		return ReplaceOption{ID: in.ID.Int64(), OptionGroup: group}, nil
	}
	return CreateOption{OptionGroup: group}, nil
}

func normalizeGroup(in OptionInput, inherit bool) (OptionGroup, error) {
	group := OptionGroup{
		Title:  strings.TrimSpace(in.Title),
		Shape:  strings.ToLower(strings.TrimSpace(in.Shape)),
		Type:   strings.ToLower(strings.TrimSpace(in.Type)),
		Radius: in.Radius,
	}
	if group.Title == "" && !inherit {
		return OptionGroup{}, ErrInvalidOptionTitle
	}
	if group.Shape == "" && !inherit {
		group.Shape = ShapeSquare
	}
	if group.Type == "" && !inherit {
		group.Type = OptionTypeText
	}
	if group.Shape != "" && group.Shape != ShapeSquare && group.Shape != ShapeCircle {
		return OptionGroup{}, ErrInvalidOptionShape
	}
	if group.Type != "" && group.Type != OptionTypeText && group.Type != OptionTypeColor {
		return OptionGroup{}, ErrInvalidOptionType
	}
	if group.Radius != nil && *group.Radius < 0 {
		return OptionGroup{}, ErrInvalidOptionRadius
	}

	for _, v := range in.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		group.Values = append(group.Values, v)
	}
	if len(group.Values) == 0 {
		return OptionGroup{}, ErrInvalidOptionValues
	}
	return group, nil
}
