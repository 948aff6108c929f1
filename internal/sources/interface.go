package sources

import (
	"context"
	"fmt"

	"github.com/threadscout/engagement-bot/internal/models"
)

const (
	// DefaultLimit is the page size requested from every provider
	DefaultLimit = 50

	// SortRelevance asks the provider to rank hits by relevance
	SortRelevance = "relevance"

	// WindowAll searches across all time
	WindowAll = "all"

	defaultUserAgent = "ThreadScout/1.0"
)

// SearchOptions controls a provider search
type SearchOptions struct {
	Limit  int
	Sort   string
	Window string
}

// DefaultSearchOptions returns the options used for discussion searches
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:  DefaultLimit,
		Sort:   SortRelevance,
		Window: WindowAll,
	}
}

// DiscussionProvider defines the contract for discussion search backends.
// Transport failures and non-2xx answers wrap models.ErrProviderUnavailable;
// payloads missing expected fields wrap models.ErrMalformedResponse.
type DiscussionProvider interface {
	GetName() string
	IsEnabled() bool
	Search(ctx context.Context, query string, opts SearchOptions) ([]models.RawDiscussion, error)
}

// NewProvider builds the provider named by DISCUSSION_PROVIDER
func NewProvider(name, redditClientID, redditClientSecret, userAgent string) (DiscussionProvider, error) {
	switch name {
	case "reddit":
		return NewRedditSource(redditClientID, redditClientSecret).SetUserAgent(userAgent), nil
	case "hackernews":
		return NewHackerNewsSource().SetUserAgent(userAgent), nil
	case "stackoverflow":
		return NewStackOverflowSource().SetUserAgent(userAgent), nil
	default:
		return nil, fmt.Errorf("unknown discussion provider %q", name)
	}
}
