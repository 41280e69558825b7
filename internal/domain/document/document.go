package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// MaxRating is the upper bound of the document rating scale.
const MaxRating = 5.0

// searchBodyLimit bounds the content bytes sent to scoring when a
// document has no summary.
const searchBodyLimit = 512

// Pricing describes how a document's subject is priced.
type Pricing struct {
	Label   string
	HasFree bool
	HasPaid bool
}

// Document is a unit of searchable content (immutable value object).
// A document never changes after loading; collection snapshots are
// replaced atomically.
type Document struct {
	id          string
	kind        Kind
	title       string
	content     string
	summary     string
	url         string
	category    string
	subcategory string
	tags        []string
	features    []string
	rating      float64
	hasRating   bool
	reviewCount int
	views       int
	pricing     Pricing
	publishedAt time.Time
	updatedAt   time.Time
	extra       map[string]string
}

// Fields bundles the optional attributes accepted by New.
type Fields struct {
	Summary     string
	URL         string
	Category    string
	Subcategory string
	Tags        []string
	Features    []string
	Rating      *float64
	ReviewCount int
	Views       int
	Pricing     Pricing
	PublishedAt time.Time
	UpdatedAt   time.Time
	Extra       map[string]string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 160KB.
func New(id string, kind Kind, title, content string, f Fields) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if !kind.IsValid() {
		return Document{}, fmt.Errorf("unknown document kind %q", kind)
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	d := Document{
		id:          id,
		kind:        kind,
		title:       title,
		content:     content,
		summary:     f.Summary,
		url:         f.URL,
		category:    f.Category,
		subcategory: f.Subcategory,
		tags:        cloneStrings(f.Tags),
		features:    cloneStrings(f.Features),
		reviewCount: f.ReviewCount,
		views:       f.Views,
		pricing:     f.Pricing,
		publishedAt: f.PublishedAt,
		updatedAt:   f.UpdatedAt,
		extra:       cloneStringMap(f.Extra),
	}
	if f.Rating != nil {
		if *f.Rating < 0 || *f.Rating > MaxRating {
			return Document{}, fmt.Errorf("rating must be between 0 and %.0f", MaxRating)
		}
		d.rating = *f.Rating
		d.hasRating = true
	}
	return d, nil
}

// ID returns the stable document identifier.
func (d *Document) ID() string { return d.id }

// Kind returns the content kind.
func (d *Document) Kind() Kind { return d.kind }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document body text.
func (d *Document) Content() string { return d.content }

// Summary returns the optional summary.
func (d *Document) Summary() string { return d.summary }

// URL returns the document URL.
func (d *Document) URL() string { return d.url }

// Category returns the optional category.
func (d *Document) Category() string { return d.category }

// Subcategory returns the optional subcategory.
func (d *Document) Subcategory() string { return d.subcategory }

// Tags returns the tag list.
func (d *Document) Tags() []string { return d.tags }

// Features returns the feature list.
func (d *Document) Features() []string { return d.features }

// Rating returns the numeric rating and whether one is set.
func (d *Document) Rating() (float64, bool) { return d.rating, d.hasRating }

// ReviewCount returns the number of reviews.
func (d *Document) ReviewCount() int { return d.reviewCount }

// Views returns the view counter used as a popularity signal.
func (d *Document) Views() int { return d.views }

// Pricing returns the pricing descriptor.
func (d *Document) Pricing() Pricing { return d.pricing }

// PublishedAt returns the publication time (zero when unknown).
func (d *Document) PublishedAt() time.Time { return d.publishedAt }

// UpdatedAt returns the last update time (zero when unknown).
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Extra returns an extension attribute by key.
func (d *Document) Extra(key string) (string, bool) {
	v, ok := d.extra[key]
	return v, ok
}

// SearchText returns the text scored for relevance: title plus summary,
// falling back to truncated content when no summary is present.
func (d *Document) SearchText() string {
	body := d.summary
	if body == "" {
		body = d.content
		if len(body) > searchBodyLimit {
			cut := searchBodyLimit
			// Back off to a rune boundary so the embedder never sees a
			// torn multi-byte character.
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}
	}
	return d.title + " " + body
}

// Field resolves a named field to its filterable value.
// Returns false when the field is absent on this document; filter
// comparisons against an absent field never match.
func (d *Document) Field(name string) (any, bool) {
	switch strings.ToLower(name) {
	case "id":
		return d.id, true
	case "kind", "type":
		return string(d.kind), true
	case "title":
		return d.title, true
	case "content":
		return d.content, true
	case "summary":
		return emptyAsAbsent(d.summary)
	case "url":
		return emptyAsAbsent(d.url)
	case "category":
		return emptyAsAbsent(d.category)
	case "subcategory":
		return emptyAsAbsent(d.subcategory)
	case "tags":
		if len(d.tags) == 0 {
			return nil, false
		}
		return d.tags, true
	case "features":
		if len(d.features) == 0 {
			return nil, false
		}
		return d.features, true
	case "rating":
		if !d.hasRating {
			return nil, false
		}
		return d.rating, true
	case "reviewcount", "reviews":
		return float64(d.reviewCount), true
	case "views":
		return float64(d.views), true
	case "pricing", "pricingtype":
		return emptyAsAbsent(d.pricing.Label)
	case "published", "publishedat":
		if d.publishedAt.IsZero() {
			return nil, false
		}
		return d.publishedAt, true
	case "updated", "updatedat":
		if d.updatedAt.IsZero() {
			return nil, false
		}
		return d.updatedAt, true
	default:
		if v, ok := d.extra[name]; ok {
			return v, true
		}
		return nil, false
	}
}

func emptyAsAbsent(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
