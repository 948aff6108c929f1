package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/threadscout/engagement-bot/internal/models"
)

const stackExchangeSearchURL = "https://api.stackexchange.com/2.3/search/advanced"

// StackOverflowSource searches Stack Overflow questions
type StackOverflowSource struct {
	client    *resty.Client
	searchURL string
	userAgent string
}

// Ensure StackOverflowSource implements DiscussionProvider
var _ DiscussionProvider = (*StackOverflowSource)(nil)

type stackOverflowResponse struct {
	Items *[]stackOverflowQuestion `json:"items"`
}

type stackOverflowQuestion struct {
	QuestionID int      `json:"question_id"`
	Title      *string  `json:"title"`
	Tags       []string `json:"tags"`
	Owner      struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	CreationDate int64  `json:"creation_date"`
	Score        int    `json:"score"`
	AnswerCount  int    `json:"answer_count"`
	Link         string `json:"link"`
}

// NewStackOverflowSource creates a new Stack Overflow source
func NewStackOverflowSource() *StackOverflowSource {
	return &StackOverflowSource{
		client:    resty.New().SetTimeout(30 * time.Second),
		searchURL: stackExchangeSearchURL,
		userAgent: defaultUserAgent,
	}
}

// SetUserAgent overrides the User-Agent sent to the Stack Exchange API
func (s *StackOverflowSource) SetUserAgent(userAgent string) *StackOverflowSource {
	if userAgent != "" {
		s.userAgent = userAgent
	}
	return s
}

// SetSearchURL points the source at an alternative search endpoint
func (s *StackOverflowSource) SetSearchURL(searchURL string) *StackOverflowSource {
	s.searchURL = searchURL
	return s
}

func (s *StackOverflowSource) GetName() string {
	return "stackoverflow"
}

func (s *StackOverflowSource) IsEnabled() bool {
	return true // Stack Overflow API doesn't require authentication for basic searches
}

func (s *StackOverflowSource) Search(ctx context.Context, query string, opts SearchOptions) ([]models.RawDiscussion, error) {
	sort := opts.Sort
	if sort == "new" || sort == "date" {
		sort = "creation"
	}

	params := map[string]string{
		"q":        query,
		"order":    "desc",
		"sort":     sort,
		"site":     "stackoverflow",
		"pagesize": strconv.Itoa(opts.Limit),
	}
	if window, ok := windowDurations[opts.Window]; ok {
		params["fromdate"] = strconv.FormatInt(time.Now().Add(-window).Unix(), 10)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", s.userAgent).
		SetQueryParams(params).
		Get(s.searchURL)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: stack overflow API returned status %d", models.ErrProviderUnavailable, resp.StatusCode())
	}

	return parseStackOverflowSearch(resp.Body())
}

func parseStackOverflowSearch(body []byte) ([]models.RawDiscussion, error) {
	var searchResp stackOverflowResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	if searchResp.Items == nil {
		return nil, fmt.Errorf("%w: missing items", models.ErrMalformedResponse)
	}

	results := make([]models.RawDiscussion, 0, len(*searchResp.Items))
	for i, question := range *searchResp.Items {
		if question.Title == nil || question.Link == "" {
			return nil, fmt.Errorf("%w: item %d is missing title or link", models.ErrMalformedResponse, i)
		}

		community := "stackoverflow"
		if len(question.Tags) > 0 {
			community = question.Tags[0]
		}

		results = append(results, models.RawDiscussion{
			// Stack Exchange returns HTML-escaped titles
			Title:       html.UnescapeString(*question.Title),
			Permalink:   question.Link,
			Subreddit:   community,
			Score:       question.Score,
			NumComments: question.AnswerCount,
			CreatedUTC:  float64(question.CreationDate),
			Author:      question.Owner.DisplayName,
		})
	}

	return results, nil
}
