package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Params struct {
	DefaultSize int
	MaxSize     int
}

func NewParams(defaultSize, maxSize int) Params {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return Params{DefaultSize: defaultSize, MaxSize: maxSize}
}

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Parse never fails: malformed values fall back to the first page and the
// default size, oversized requests are clamped to MaxSize. The page number is
// capped so that the offset and the end of the page fit in an int.
func (p Params) Parse(page, size string) Page {
	n := ParseIntDefault(page, 1)
	if n < 1 {
		n = 1
	}
	s := ParseIntDefault(size, p.DefaultSize)
	if s < 1 {
		s = p.DefaultSize
	}
	if s > p.MaxSize {
		s = p.MaxSize
	}
	if n > math.MaxInt/s {
		n = math.MaxInt / s
	}
	return Page{Number: n, Size: s}
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewMeta(p Page, total int64) Meta {
	return Meta{
		Page:       p.Number,
		Size:       p.Size,
		Total:      total,
		TotalPages: (total + int64(p.Size) - 1) / int64(p.Size),
		HasPrev:    p.Number > 1,
		HasNext:    int64(p.Offset()+p.Size) < total,
	}
}

type Result[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
