package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/threadscout/engagement-bot/internal/models"
)

const (
	redditPublicSearchURL = "https://www.reddit.com/search.json"
	redditOAuthSearchURL  = "https://oauth.reddit.com/search"
	redditTokenURL        = "https://www.reddit.com/api/v1/access_token"
	redditBaseURL         = "https://www.reddit.com"
)

// RedditSource searches Reddit for discussion threads.
// Without credentials it uses the public JSON search; with them it uses OAuth.
type RedditSource struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *resty.Client

	publicSearchURL string
	oauthSearchURL  string
	tokenURL        string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Ensure RedditSource implements DiscussionProvider
var _ DiscussionProvider = (*RedditSource)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data *struct {
		Children *[]struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title"`
	Author      string   `json:"author"`
	Subreddit   string   `json:"subreddit"`
	Permalink   *string  `json:"permalink"`
	Created     *float64 `json:"created_utc"`
	Score       int      `json:"score"`
	NumComments int      `json:"num_comments"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:        clientID,
		clientSecret:    clientSecret,
		userAgent:       defaultUserAgent,
		client:          resty.New().SetTimeout(30 * time.Second),
		publicSearchURL: redditPublicSearchURL,
		oauthSearchURL:  redditOAuthSearchURL,
		tokenURL:        redditTokenURL,
	}
}

// SetUserAgent overrides the User-Agent sent to Reddit
func (r *RedditSource) SetUserAgent(userAgent string) *RedditSource {
	if userAgent != "" {
		r.userAgent = userAgent
	}
	return r
}

// SetEndpoints points the source at alternative search and token URLs
func (r *RedditSource) SetEndpoints(publicSearchURL, oauthSearchURL, tokenURL string) *RedditSource {
	r.publicSearchURL = publicSearchURL
	r.oauthSearchURL = oauthSearchURL
	r.tokenURL = tokenURL
	return r
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

// IsEnabled always reports true since the public search needs no credentials
func (r *RedditSource) IsEnabled() bool {
	return true
}

func (r *RedditSource) usesOAuth() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) Search(ctx context.Context, query string, opts SearchOptions) ([]models.RawDiscussion, error) {
	req := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", r.userAgent).
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": strconv.Itoa(opts.Limit),
			"sort":  opts.Sort,
			"t":     opts.Window,
		})

	searchURL := r.publicSearchURL
	if r.usesOAuth() {
		token, err := r.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: reddit authentication failed: %w", models.ErrProviderUnavailable, err)
		}
		req.SetAuthToken(token)
		searchURL = r.oauthSearchURL
	}

	resp, err := req.Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: reddit API returned status %d", models.ErrProviderUnavailable, resp.StatusCode())
	}

	return parseRedditSearch(resp.Body())
}

func parseRedditSearch(body []byte) ([]models.RawDiscussion, error) {
	var searchResp redditSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	if searchResp.Data == nil || searchResp.Data.Children == nil {
		return nil, fmt.Errorf("%w: missing data.children", models.ErrMalformedResponse)
	}

	children := *searchResp.Data.Children
	results := make([]models.RawDiscussion, 0, len(children))

	for i, child := range children {
		post := child.Data
		if post.Title == nil || post.Permalink == nil {
			return nil, fmt.Errorf("%w: result %d is missing title or permalink", models.ErrMalformedResponse, i)
		}

		raw := models.RawDiscussion{
			Title:       *post.Title,
			Permalink:   redditLink(*post.Permalink),
			Subreddit:   post.Subreddit,
			Score:       post.Score,
			NumComments: post.NumComments,
			Author:      post.Author,
		}
		if post.Created != nil {
			raw.CreatedUTC = *post.Created
		}

		results = append(results, raw)
	}

	return results, nil
}

func redditLink(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	return redditBaseURL + permalink
}

// token returns a cached application token, requesting a new one when it has expired.
func (r *RedditSource) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry) {
		return r.accessToken, nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", r.userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.tokenURL)

	if err != nil {
		return "", err
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}

	if authResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	// Tokens are refreshed a minute before Reddit expires them
	lifetime := time.Duration(authResp.ExpiresIn)*time.Second - time.Minute
	if lifetime < 0 {
		lifetime = 0
	}

	r.accessToken = authResp.AccessToken
	r.tokenExpiry = time.Now().Add(lifetime)
	return r.accessToken, nil
}
