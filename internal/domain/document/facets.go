package document

// Facet is one facet value with the number of documents carrying it.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets summarizes a collection snapshot for filter UIs.
type Facets struct {
	Categories []Facet `json:"categories"`
	Types      []Facet `json:"types"`
}
