package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// Unbounded is the limit value that disables paging.
const Unbounded = -1

var (
	ErrInvalidLimit = errors.New("invalid_limit")
	ErrInvalidPage  = errors.New("invalid_page")
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=10" validate:"gte=1,lte=250"`
}

type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken     string `json:"next_page_token"`
	PreviousPageToken string `json:"previous_page_token"`
	HasMore           bool   `json:"has_more"`
}

// Page is a resolved limit/page pair for offset pagination.
type Page struct {
	Limit int
	Page  int
}

// NewPage validates limit and page. Nil values take the defaults; limit -1 means
// every row and forces page 1.
func NewPage(limit, page *int, defaultLimit int) (Page, error) {
	resolved := Page{Limit: defaultLimit, Page: 1}
	if limit != nil {
		resolved.Limit = *limit
	}
	if page != nil {
		resolved.Page = *page
	}

	if resolved.Limit == Unbounded {
		resolved.Page = 1
		return resolved, nil
	}
	if resolved.Limit <= 0 {
		return Page{}, ErrInvalidLimit
	}
	if resolved.Page < 1 {
		return Page{}, ErrInvalidPage
	}
	return resolved, nil
}

func (p Page) Unbounded() bool {
	return p.Limit == Unbounded
}

func (p Page) Offset() int {
	if p.Unbounded() || p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

func BuildCursorPageInfo[T any](data []*T, limit int32, extractCursor func(*T) string) *PageInfo {
	if len(data) == 0 {
		return &PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > int(limit) {
		hasMore = true
		data = data[:limit]
	}

	pageInfo := &PageInfo{
		HasMore:       hasMore,
		NextPageToken: extractCursor(data[len(data)-1]),
	}

	return pageInfo
}
