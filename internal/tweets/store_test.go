package tweets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/storage"
)

// MemoryStorage implements StorageInterface for testing
type MemoryStorage struct {
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Store(_ context.Context, name string, data []byte) error {
	m.data[name] = data
	return nil
}

func (m *MemoryStorage) Retrieve(_ context.Context, name string) ([]byte, error) {
	if data, exists := m.data[name]; exists {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
}

func (m *MemoryStorage) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	for name := range m.data {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) Delete(_ context.Context, name string) error {
	delete(m.data, name)
	return nil
}

const seedJSON = `[
  {"id": "2", "content": "I love building apps and writing code", "authorName": "Ada", "authorImg": "/ada.png",
   "likes": "12", "retweets": "3", "originalTweetLink": "https://twitter.com/ada/status/2", "createdAt": "2h"},
  {"id": "1", "content": "Check out my new video at https://x.com/abc! #excited", "authorName": "Bo",
   "likes": "1", "retweets": "0", "originalTweetLink": "https://twitter.com/bo/status/1"}
]`

func TestStore_SeedAndList(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	ctx := context.Background()

	count, err := store.Seed(ctx, strings.NewReader(seedJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tweets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tweets, 2)
	assert.Equal(t, "1", tweets[0].ID)
	assert.Equal(t, "2", tweets[1].ID)
	assert.Equal(t, "Ada", tweets[1].AuthorName)
	assert.Equal(t, "https://twitter.com/ada/status/2", tweets[1].OriginalTweetLink)
}

func TestStore_SeedValidation(t *testing.T) {
	tests := []struct {
		name string
		seed string
	}{
		{name: "Invalid JSON", seed: `{"id": "1"}`},
		{name: "Missing id", seed: `[{"content": "no id"}]`},
		{name: "Duplicate id", seed: `[{"id": "1"}, {"id": "1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryStorage()
			store := NewStore(mem)

			_, err := store.Seed(context.Background(), strings.NewReader(tt.seed))
			assert.Error(t, err)
			assert.Empty(t, mem.data, "nothing is stored when the seed is rejected")
		})
	}
}

func TestStore_Get(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.Tweet{ID: "42", Content: "hello"}))

	tweet, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "hello", tweet.Content)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrTweetNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	assert.Error(t, store.Save(context.Background(), models.Tweet{Content: "anonymous"}))
}
