package collection

import (
	"fmt"
	"time"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
)

// documentDTO is the on-disk JSON shape of one content item.
type documentDTO struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Summary     string            `json:"summary,omitempty"`
	URL         string            `json:"url,omitempty"`
	Category    string            `json:"category,omitempty"`
	Subcategory string            `json:"subcategory,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Features    []string          `json:"features,omitempty"`
	Rating      *float64          `json:"rating,omitempty"`
	ReviewCount int               `json:"reviewCount,omitempty"`
	Views       int               `json:"views,omitempty"`
	Pricing     *pricingDTO       `json:"pricing,omitempty"`
	PublishedAt string            `json:"publishedAt,omitempty"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type pricingDTO struct {
	Label string `json:"label,omitempty"`
	Free  bool   `json:"free,omitempty"`
	Paid  bool   `json:"paid,omitempty"`
}

// toDomain converts the DTO into a validated domain document.
func (dto *documentDTO) toDomain() (document.Document, error) {
	fields := document.Fields{
		Summary:     dto.Summary,
		URL:         dto.URL,
		Category:    dto.Category,
		Subcategory: dto.Subcategory,
		Tags:        dto.Tags,
		Features:    dto.Features,
		Rating:      dto.Rating,
		ReviewCount: dto.ReviewCount,
		Views:       dto.Views,
		Extra:       dto.Extra,
	}
	if dto.Pricing != nil {
		fields.Pricing = document.Pricing{
			Label:   dto.Pricing.Label,
			HasFree: dto.Pricing.Free,
			HasPaid: dto.Pricing.Paid,
		}
	}

	var err error
	if fields.PublishedAt, err = parseTime(dto.PublishedAt); err != nil {
		return document.Document{}, fmt.Errorf("publishedAt: %w", err)
	}
	if fields.UpdatedAt, err = parseTime(dto.UpdatedAt); err != nil {
		return document.Document{}, fmt.Errorf("updatedAt: %w", err)
	}

	return document.New(dto.ID, document.Kind(dto.Type), dto.Title, dto.Content, fields)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
