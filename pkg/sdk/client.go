// Package sdk is a minimal Go client for the hubsearch HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Client is the hubsearch SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserID attaches a user ID to every search and track call.
func WithUserID(userID string) Option {
	return func(c *Client) { c.userID = userID }
}

// New creates a hubsearch Client for the given base URL. Without
// WithUserID the client uses a random anonymous user ID, so tracked
// interactions still personalize its own later searches.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userID:     uuid.NewString(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchParams are the optional search parameters. Zero values are omitted.
type SearchParams struct {
	Filter             string
	Limit              int
	Type               string
	Category           string
	Subcategory        string
	MinRating          float64
	MinReviews         int
	MaxPrice           float64
	PricingType        string
	SortBy             string
	SortOrder          string
	BoostFavorites     bool
	BoostHistory       bool
	ExcludeDisliked    bool
	Cluster            bool
	AdvancedClustering bool
	ClusterCount       int
}

// SearchResponse is the GET /api/search response body.
type SearchResponse struct {
	Success      bool          `json:"success"`
	Query        string        `json:"query"`
	Count        int           `json:"count"`
	Results      []Result      `json:"results"`
	Clusters     []Cluster     `json:"clusters,omitempty"`
	ClusterStats *ClusterStats `json:"clusterStats,omitempty"`
	Facets       Facets        `json:"facets"`
}

// Result is one ranked search hit.
type Result struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	URL         string             `json:"url,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	Category    string             `json:"category,omitempty"`
	Subcategory string             `json:"subcategory,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Features    []string           `json:"features,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	ReviewCount int                `json:"reviewCount,omitempty"`
	Views       int                `json:"views,omitempty"`
	Pricing     string             `json:"pricing,omitempty"`
	PublishedAt string             `json:"publishedAt,omitempty"`
	UpdatedAt   string             `json:"updatedAt,omitempty"`
	Score       float64            `json:"score"`
	Snippet     string             `json:"snippet,omitempty"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
}

// Cluster is a named result grouping.
type Cluster struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	Category         string   `json:"category,omitempty"`
	ResultIDs        []string `json:"resultIds"`
	Count            int      `json:"count"`
	AverageRating    float64  `json:"averageRating"`
	MinSimilarity    float64  `json:"minSimilarity"`
	MaxSimilarity    float64  `json:"maxSimilarity"`
	DominantFeatures []string `json:"dominantFeatures,omitempty"`
}

// ClusterStats summarizes the clustering output.
type ClusterStats struct {
	TotalClusters      int     `json:"totalClusters"`
	ClusteredResults   int     `json:"clusteredResults"`
	AverageClusterSize float64 `json:"averageClusterSize"`
}

// Facets holds the collection facet counts.
type Facets struct {
	Categories []Facet `json:"categories"`
	Types      []Facet `json:"types"`
}

// Facet is one facet value with its document count.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// HealthReport is the GET /healthz response body.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// APIError is a non-2xx response decoded from the error body.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubsearch: %s (%s, HTTP %d)", e.Message, e.Code, e.Status)
}

// Search runs a search query. params can be nil.
func (c *Client) Search(ctx context.Context, query string, params *SearchParams) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if c.userID != "" {
		q.Set("userId", c.userID)
	}
	if params != nil {
		params.encode(q)
	}

	var resp SearchResponse
	if err := c.get(ctx, "/api/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Track reports a user interaction. Rating is only used for "feedback".
func (c *Client) Track(ctx context.Context, docID, event string, rating float64) error {
	body, err := json.Marshal(map[string]any{
		"userId": c.userID,
		"docId":  docID,
		"event":  event,
		"rating": rating,
	})
	if err != nil {
		return fmt.Errorf("hubsearch: encode track request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search/track", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("hubsearch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// Facets fetches the collection facet counts.
func (c *Client) Facets(ctx context.Context) (Facets, error) {
	var resp struct {
		Facets Facets `json:"facets"`
	}
	if err := c.get(ctx, "/api/facets", &resp); err != nil {
		return Facets{}, err
	}
	return resp.Facets, nil
}

// Health fetches the service health report. A degraded service returns
// the report together with the API error.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return HealthReport{}, fmt.Errorf("hubsearch: build request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("hubsearch: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	var report HealthReport
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("hubsearch: decode response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return report, &APIError{Status: res.StatusCode, Code: "unhealthy", Message: "service is " + report.Status}
	}
	return report, nil
}

func (p *SearchParams) encode(q url.Values) {
	setStr := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setStr("filter", p.Filter)
	setStr("type", p.Type)
	setStr("category", p.Category)
	setStr("subcategory", p.Subcategory)
	setStr("pricingType", p.PricingType)
	setStr("sortBy", p.SortBy)
	setStr("sortOrder", p.SortOrder)

	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.MinRating > 0 {
		q.Set("minRating", strconv.FormatFloat(p.MinRating, 'f', -1, 64))
	}
	if p.MinReviews > 0 {
		q.Set("minReviews", strconv.Itoa(p.MinReviews))
	}
	if p.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatFloat(p.MaxPrice, 'f', -1, 64))
	}
	if p.ClusterCount > 0 {
		q.Set("clusterCount", strconv.Itoa(p.ClusterCount))
	}

	setBool := func(k string, v bool) {
		if v {
			q.Set(k, "true")
		}
	}
	setBool("boostFavorites", p.BoostFavorites)
	setBool("boostHistory", p.BoostHistory)
	setBool("excludeDisliked", p.ExcludeDisliked)
	setBool("cluster", p.Cluster)
	setBool("advancedClustering", p.AdvancedClustering)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("hubsearch: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubsearch: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode, Code: "unknown"}
		_ = json.NewDecoder(res.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("hubsearch: decode response: %w", err)
	}
	return nil
}
