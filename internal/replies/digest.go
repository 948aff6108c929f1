package replies

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/threadscout/engagement-bot/internal/models"
)

// periodWindows maps digest periods onto lookback windows
var periodWindows = map[string]time.Duration{
	"daily":  24 * time.Hour,
	"weekly": 7 * 24 * time.Hour,
}

// BuildDigest summarizes the drafts saved during the period ending now
func (s *Service) BuildDigest(ctx context.Context, period string) (*models.Digest, error) {
	window, ok := periodWindows[period]
	if !ok {
		return nil, fmt.Errorf("unknown digest period %q", period)
	}

	now := s.now().UTC()
	drafts, err := s.List(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to list reply drafts: %w", err)
	}

	digest := &models.Digest{
		GeneratedAt: now,
		Period:      period,
		TotalDrafts: len(drafts),
		Drafts:      drafts,
		Summary:     make(map[string]interface{}),
	}

	tweetCount := make(map[string]int)
	for _, draft := range drafts {
		tweetCount[draft.TweetID]++
	}

	digest.Summary["tweets"] = tweetCount
	digest.Summary["top_tweets"] = topTweets(tweetCount)

	return digest, nil
}

func topTweets(tweetCount map[string]int) []string {
	type tweetScore struct {
		tweetID string
		count   int
	}

	scores := make([]tweetScore, 0, len(tweetCount))
	for id, count := range tweetCount {
		scores = append(scores, tweetScore{id, count})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].tweetID < scores[j].tweetID
	})

	var top []string
	for i, score := range scores {
		if i >= 5 { // Top 5 tweets
			break
		}
		top = append(top, fmt.Sprintf("%s (%d)", score.tweetID, score.count))
	}

	return top
}
