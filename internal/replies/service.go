package replies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/storage"
)

const (
	replyPrefix   = "replies/"
	replyTemplate = "There's so much to unpack about this subject of %s! I've actually just shared some thoughts on Twitter that might add to our discussion here: %s. Would love to hear your thoughts and engage further on this!"
)

// GenerateReply fills the reply template with the discussion title and tweet URL.
// Inputs are used verbatim, empty strings included.
func GenerateReply(discussionTitle, tweetURL string) string {
	return fmt.Sprintf(replyTemplate, discussionTitle, tweetURL)
}

// Service drafts reply suggestions and persists the ones the user keeps
type Service struct {
	storage storage.StorageInterface
	now     func() time.Time
	newID   func() string
}

// NewService creates a new reply service
func NewService(storage storage.StorageInterface) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Draft builds an unsaved reply for a discussion found for tweet
func (s *Service) Draft(record models.DiscussionRecord, tweet models.Tweet) models.ReplyDraft {
	return models.ReplyDraft{
		Content:  GenerateReply(record.Title, tweet.OriginalTweetLink),
		ThreadID: record.Title,
		TweetID:  tweet.ID,
	}
}

// Save persists a draft, assigning an id and creation time when missing
func (s *Service) Save(ctx context.Context, draft models.ReplyDraft) (models.ReplyDraft, error) {
	if strings.TrimSpace(draft.TweetID) == "" {
		return models.ReplyDraft{}, fmt.Errorf("reply draft tweet id is required")
	}

	if draft.ID == "" {
		draft.ID = s.newID()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = s.now().UTC()
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return models.ReplyDraft{}, fmt.Errorf("failed to marshal reply draft: %w", err)
	}

	if err := s.storage.Store(ctx, objectName(draft.ID), data); err != nil {
		return models.ReplyDraft{}, fmt.Errorf("failed to save reply draft %s: %w", draft.ID, err)
	}

	logrus.Infof("Saved reply draft %s for tweet %s", draft.ID, draft.TweetID)
	return draft, nil
}

// Get returns the saved draft with the given id
func (s *Service) Get(ctx context.Context, id string) (models.ReplyDraft, error) {
	data, err := s.storage.Retrieve(ctx, objectName(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.ReplyDraft{}, fmt.Errorf("%w: %s", models.ErrDraftNotFound, id)
		}
		return models.ReplyDraft{}, err
	}

	var draft models.ReplyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return models.ReplyDraft{}, fmt.Errorf("failed to decode reply draft %s: %w", id, err)
	}
	return draft, nil
}

// List returns drafts saved at or after since, oldest first. A zero since returns all drafts.
func (s *Service) List(ctx context.Context, since time.Time) ([]models.ReplyDraft, error) {
	names, err := s.storage.List(ctx, replyPrefix)
	if err != nil {
		return nil, err
	}

	drafts := make([]models.ReplyDraft, 0, len(names))
	for _, name := range names {
		data, err := s.storage.Retrieve(ctx, name)
		if err != nil {
			return nil, err
		}

		var draft models.ReplyDraft
		if err := json.Unmarshal(data, &draft); err != nil {
			logrus.Warnf("Skipping unreadable reply draft %s: %v", name, err)
			continue
		}

		if !since.IsZero() && draft.CreatedAt.Before(since) {
			continue
		}
		drafts = append(drafts, draft)
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
	})
	return drafts, nil
}

func objectName(id string) string {
	return storage.ObjectName("replies", id+".json")
}
