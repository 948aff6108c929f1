// Package discussion finds forum threads related to a tweet.
package discussion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/sources"
)

const (
	// DisplayDateLayout renders dates like "January 5, 2024"
	DisplayDateLayout = "January 2, 2006"

	// UnknownDateDisplay is shown when a provider timestamp cannot be rendered
	UnknownDateDisplay = "Unknown date"

	// maxEpochSeconds is the last second of year 9999
	maxEpochSeconds = 253402300799
)

// QueryExtractor derives a provider query from post content
type QueryExtractor interface {
	Extract(text string) string
}

// Pipeline turns a tweet into a ranked list of discussion records.
// It keeps no state between calls and is safe for concurrent use.
type Pipeline struct {
	extractor QueryExtractor
	provider  sources.DiscussionProvider
	location  *time.Location
}

// NewPipeline creates a pipeline. A nil location renders dates in UTC.
func NewPipeline(extractor QueryExtractor, provider sources.DiscussionProvider, location *time.Location) *Pipeline {
	if location == nil {
		location = time.UTC
	}
	return &Pipeline{
		extractor: extractor,
		provider:  provider,
		location:  location,
	}
}

// ProviderName returns the name of the configured discussion provider
func (p *Pipeline) ProviderName() string {
	return p.provider.GetName()
}

// Query returns the search query that would be sent for content
func (p *Pipeline) Query(content string) string {
	return p.extractor.Extract(content)
}

// Search finds discussions for the tweet and tags each one with the tweet's id
func (p *Pipeline) Search(ctx context.Context, tweet models.Tweet) ([]models.DiscussionRecord, error) {
	return p.SearchContent(ctx, tweet.Content, tweet.ID)
}

// SearchContent finds discussions for raw content. Records are sorted newest first.
// An empty query fails with models.ErrEmptyQuery before the provider is called.
func (p *Pipeline) SearchContent(ctx context.Context, content, originTweetID string) ([]models.DiscussionRecord, error) {
	query := p.extractor.Extract(content)
	if query == "" {
		return nil, models.ErrEmptyQuery
	}

	raw, err := p.provider.Search(ctx, query, sources.DefaultSearchOptions())
	if err != nil {
		if !errors.Is(err, models.ErrProviderUnavailable) && !errors.Is(err, models.ErrMalformedResponse) {
			err = fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("search %s for %q: %w", p.provider.GetName(), query, err)
	}

	records := make([]models.DiscussionRecord, 0, len(raw))
	for _, result := range raw {
		records = append(records, p.normalize(result, originTweetID))
	}

	SortRecords(records)
	return records, nil
}

func (p *Pipeline) normalize(raw models.RawDiscussion, originTweetID string) models.DiscussionRecord {
	return models.DiscussionRecord{
		Title:            raw.Title,
		Link:             raw.Permalink,
		Subreddit:        raw.Subreddit,
		Score:            raw.Score,
		NumComments:      raw.NumComments,
		CreatedAtRaw:     raw.CreatedUTC,
		CreatedAtDisplay: FormatCreatedAt(raw.CreatedUTC, p.location),
		Author:           raw.Author,
		OriginTweetID:    originTweetID,
	}
}

// SortRecords orders records newest first, keeping provider order for equal timestamps
func SortRecords(records []models.DiscussionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtRaw > records[j].CreatedAtRaw
	})
}

// FormatCreatedAt renders epoch seconds as a long date in loc,
// falling back to UnknownDateDisplay for missing or out of range values.
func FormatCreatedAt(epoch float64, loc *time.Location) string {
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) || epoch <= 0 || epoch > maxEpochSeconds {
		return UnknownDateDisplay
	}
	if loc == nil {
		loc = time.UTC
	}

	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).In(loc).Format(DisplayDateLayout)
}
