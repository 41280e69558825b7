package query

import "github.com/digital-hub-ai/hubsearch/internal/domain/search/filter"

// Intent is the inferred purpose of a search query.
type Intent string

// Recognized query intents. Informational is the default when no cue matches.
const (
	IntentInformational  Intent = "informational"
	IntentNavigational   Intent = "navigational"
	IntentTransactional  Intent = "transactional"
	IntentComparative    Intent = "comparative"
	IntentRecommendation Intent = "recommendation"
	IntentTutorial       Intent = "tutorial"
	IntentReview         Intent = "review"
	IntentAlternative    Intent = "alternative"
)

// EntityType classifies an extracted entity.
type EntityType string

// Entity types with their fixed extraction confidence.
const (
	EntityCategory EntityType = "category"
	EntityTag      EntityType = "tag"
	EntityPrice    EntityType = "price"
	EntityRating   EntityType = "rating"
	EntityDate     EntityType = "date"
	EntityBrand    EntityType = "brand"
)

// Entity is a typed span extracted from the raw query.
type Entity struct {
	Type       EntityType
	Text       string
	Value      string
	Confidence float64
}

// SortField identifies a result ordering key.
type SortField string

// Sortable fields.
const (
	SortRelevance SortField = "relevance"
	SortRating    SortField = "rating"
	SortDate      SortField = "date"
	SortPrice     SortField = "price"
	SortViews     SortField = "views"
)

// SortOrder is the ordering direction.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort pairs a field with a direction.
type Sort struct {
	Field SortField
	Order SortOrder
}

// Processed is the result of query understanding: the residual query text,
// the inferred intent, extracted entities, the filter synthesized from them,
// and intent-derived defaults. Computed fresh per request.
type Processed struct {
	Raw        string
	Cleaned    string
	Intent     Intent
	Entities   []Entity
	Filters    filter.Group
	Phrases    []string
	Fuzzy      bool
	FuzzyLevel float64

	// Defaults derived from intent; applied only when the caller did not
	// request a sort or limit explicitly.
	DefaultSort  *Sort
	DefaultLimit int
}

// EntitiesOfType returns the extracted entities matching t.
func (p *Processed) EntitiesOfType(t EntityType) []Entity {
	var out []Entity
	for _, e := range p.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
