package tweets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/storage"
)

const tweetPrefix = "tweets/"

// Store keeps the tweets that discussions are searched for
type Store struct {
	storage storage.StorageInterface
}

// NewStore creates a new tweet store
func NewStore(storage storage.StorageInterface) *Store {
	return &Store{storage: storage}
}

// Seed loads a JSON array of tweets and saves each one.
// Every tweet needs a non-empty id that is unique within the seed.
func (s *Store) Seed(ctx context.Context, r io.Reader) (int, error) {
	var seed []models.Tweet
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return 0, fmt.Errorf("failed to decode tweet seed: %w", err)
	}

	seen := make(map[string]bool, len(seed))
	for i, tweet := range seed {
		if strings.TrimSpace(tweet.ID) == "" {
			return 0, fmt.Errorf("tweet %d has no id", i)
		}
		if seen[tweet.ID] {
			return 0, fmt.Errorf("duplicate tweet id %q", tweet.ID)
		}
		seen[tweet.ID] = true
	}

	for _, tweet := range seed {
		if err := s.Save(ctx, tweet); err != nil {
			return 0, err
		}
	}

	logrus.Infof("Seeded %d tweets", len(seed))
	return len(seed), nil
}

// Save stores a single tweet, replacing any tweet with the same id
func (s *Store) Save(ctx context.Context, tweet models.Tweet) error {
	if strings.TrimSpace(tweet.ID) == "" {
		return fmt.Errorf("tweet id is required")
	}

	data, err := json.Marshal(tweet)
	if err != nil {
		return fmt.Errorf("failed to marshal tweet %s: %w", tweet.ID, err)
	}

	return s.storage.Store(ctx, objectName(tweet.ID), data)
}

// Get returns the tweet with the given id
func (s *Store) Get(ctx context.Context, id string) (models.Tweet, error) {
	data, err := s.storage.Retrieve(ctx, objectName(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Tweet{}, fmt.Errorf("%w: %s", models.ErrTweetNotFound, id)
		}
		return models.Tweet{}, err
	}

	var tweet models.Tweet
	if err := json.Unmarshal(data, &tweet); err != nil {
		return models.Tweet{}, fmt.Errorf("failed to decode tweet %s: %w", id, err)
	}
	return tweet, nil
}

// List returns all stored tweets ordered by id
func (s *Store) List(ctx context.Context) ([]models.Tweet, error) {
	names, err := s.storage.List(ctx, tweetPrefix)
	if err != nil {
		return nil, err
	}

	tweets := make([]models.Tweet, 0, len(names))
	for _, name := range names {
		data, err := s.storage.Retrieve(ctx, name)
		if err != nil {
			return nil, err
		}

		var tweet models.Tweet
		if err := json.Unmarshal(data, &tweet); err != nil {
			logrus.Warnf("Skipping unreadable tweet %s: %v", name, err)
			continue
		}
		tweets = append(tweets, tweet)
	}

	sort.Slice(tweets, func(i, j int) bool {
		return tweets[i].ID < tweets[j].ID
	})
	return tweets, nil
}

func objectName(id string) string {
	return storage.ObjectName("tweets", id+".json")
}
