package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/threadscout/engagement-bot/internal/models"
)

const hackerNewsSearchURL = "https://hn.algolia.com/api/v1"

// HackerNewsSource searches Hacker News stories through the Algolia API
type HackerNewsSource struct {
	client    *resty.Client
	baseURL   string
	userAgent string
}

// Ensure HackerNewsSource implements DiscussionProvider
var _ DiscussionProvider = (*HackerNewsSource)(nil)

type hackerNewsSearchResponse struct {
	Hits *[]hackerNewsHit `json:"hits"`
}

type hackerNewsHit struct {
	ObjectID    string  `json:"objectID"`
	Title       *string `json:"title"`
	Author      string  `json:"author"`
	Points      int     `json:"points"`
	NumComments int     `json:"num_comments"`
	CreatedAtI  int64   `json:"created_at_i"`
}

// windowDurations maps provider-neutral search windows onto lookback periods
var windowDurations = map[string]time.Duration{
	"hour":  time.Hour,
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// NewHackerNewsSource creates a new Hacker News source
func NewHackerNewsSource() *HackerNewsSource {
	return &HackerNewsSource{
		client:    resty.New().SetTimeout(30 * time.Second),
		baseURL:   hackerNewsSearchURL,
		userAgent: defaultUserAgent,
	}
}

// SetUserAgent overrides the User-Agent sent to the search API
func (h *HackerNewsSource) SetUserAgent(userAgent string) *HackerNewsSource {
	if userAgent != "" {
		h.userAgent = userAgent
	}
	return h
}

// SetBaseURL points the source at an alternative search API root
func (h *HackerNewsSource) SetBaseURL(baseURL string) *HackerNewsSource {
	h.baseURL = baseURL
	return h
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // Algolia's Hacker News API doesn't require authentication
}

func (h *HackerNewsSource) Search(ctx context.Context, query string, opts SearchOptions) ([]models.RawDiscussion, error) {
	endpoint := h.baseURL + "/search"
	if opts.Sort == "new" || opts.Sort == "date" {
		endpoint = h.baseURL + "/search_by_date"
	}

	params := map[string]string{
		"query":       query,
		"tags":        "story",
		"hitsPerPage": strconv.Itoa(opts.Limit),
	}
	if window, ok := windowDurations[opts.Window]; ok {
		params["numericFilters"] = fmt.Sprintf("created_at_i>%d", time.Now().Add(-window).Unix())
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", h.userAgent).
		SetQueryParams(params).
		Get(endpoint)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: hacker news API returned status %d", models.ErrProviderUnavailable, resp.StatusCode())
	}

	return parseHackerNewsSearch(resp.Body())
}

func parseHackerNewsSearch(body []byte) ([]models.RawDiscussion, error) {
	var searchResp hackerNewsSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	if searchResp.Hits == nil {
		return nil, fmt.Errorf("%w: missing hits", models.ErrMalformedResponse)
	}

	results := make([]models.RawDiscussion, 0, len(*searchResp.Hits))
	for i, hit := range *searchResp.Hits {
		if hit.Title == nil || hit.ObjectID == "" {
			return nil, fmt.Errorf("%w: hit %d is missing title or objectID", models.ErrMalformedResponse, i)
		}

		results = append(results, models.RawDiscussion{
			Title:       *hit.Title,
			Permalink:   fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID),
			Subreddit:   "hackernews",
			Score:       hit.Points,
			NumComments: hit.NumComments,
			CreatedUTC:  float64(hit.CreatedAtI),
			Author:      hit.Author,
		})
	}

	return results, nil
}
