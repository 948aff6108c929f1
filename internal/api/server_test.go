package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/threadscout/engagement-bot/internal/models"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) ProviderName() string {
	return "Reddit"
}

func (m *MockSearcher) Search(ctx context.Context, tweet models.Tweet) ([]models.DiscussionRecord, error) {
	args := m.Called(ctx, tweet)
	records, _ := args.Get(0).([]models.DiscussionRecord)
	return records, args.Error(1)
}

func (m *MockSearcher) SearchContent(ctx context.Context, content, originTweetID string) ([]models.DiscussionRecord, error) {
	args := m.Called(ctx, content, originTweetID)
	records, _ := args.Get(0).([]models.DiscussionRecord)
	return records, args.Error(1)
}

type MockTweetStore struct {
	mock.Mock
}

func (m *MockTweetStore) Get(ctx context.Context, id string) (models.Tweet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Tweet), args.Error(1)
}

func (m *MockTweetStore) List(ctx context.Context) ([]models.Tweet, error) {
	args := m.Called(ctx)
	tweets, _ := args.Get(0).([]models.Tweet)
	return tweets, args.Error(1)
}

type MockReplyService struct {
	mock.Mock
}

func (m *MockReplyService) Draft(record models.DiscussionRecord, tweet models.Tweet) models.ReplyDraft {
	args := m.Called(record, tweet)
	return args.Get(0).(models.ReplyDraft)
}

func (m *MockReplyService) Save(ctx context.Context, draft models.ReplyDraft) (models.ReplyDraft, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(models.ReplyDraft), args.Error(1)
}

func (m *MockReplyService) Get(ctx context.Context, id string) (models.ReplyDraft, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ReplyDraft), args.Error(1)
}

func (m *MockReplyService) List(ctx context.Context, since time.Time) ([]models.ReplyDraft, error) {
	args := m.Called(ctx, since)
	drafts, _ := args.Get(0).([]models.ReplyDraft)
	return drafts, args.Error(1)
}

type testServer struct {
	server   *Server
	searcher *MockSearcher
	tweets   *MockTweetStore
	replies  *MockReplyService
}

func newTestServer() *testServer {
	ts := &testServer{
		searcher: &MockSearcher{},
		tweets:   &MockTweetStore{},
		replies:  &MockReplyService{},
	}
	ts.server = NewServer(ts.searcher, ts.tweets, ts.replies, time.Second)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

var sampleRecord = models.DiscussionRecord{
	Title:            "How do you make videos fast?",
	Link:             "https://www.reddit.com/r/videography/comments/1",
	Subreddit:        "videography",
	Score:            12,
	NumComments:      4,
	CreatedAtRaw:     1706745600,
	CreatedAtDisplay: "February 1, 2024",
	Author:           "maker",
	OriginTweetID:    "tweet-1",
}

var sampleTweet = models.Tweet{
	ID:                "tweet-1",
	Content:           "Check out my new video",
	OriginalTweetLink: "https://twitter.com/me/status/1",
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestSearchContent_Success(t *testing.T) {
	ts := newTestServer()
	ts.searcher.On("SearchContent", mock.Anything, "Check out my new video", "tweet-1").
		Return([]models.DiscussionRecord{sampleRecord}, nil)

	rec := ts.do(http.MethodGet, "/api/searchReddit?content=Check+out+my+new+video&tweetId=tweet-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.DiscussionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Equal(t, []models.DiscussionRecord{sampleRecord}, records)
	assert.Contains(t, rec.Body.String(), `"createdAt":1706745600`)
	assert.Contains(t, rec.Body.String(), `"originTweetId":"tweet-1"`)
	ts.searcher.AssertExpectations(t)
}

func TestSearchContent_EmptyResultIsArray(t *testing.T) {
	ts := newTestServer()
	ts.searcher.On("SearchContent", mock.Anything, "nothing here", "").
		Return([]models.DiscussionRecord{}, nil)

	rec := ts.do(http.MethodGet, "/api/searchReddit?content=nothing+here", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchContent_Failures(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedMessage string
	}{
		{
			name:            "Empty query",
			err:             models.ErrEmptyQuery,
			expectedMessage: "No usable search terms found in content",
		},
		{
			name:            "Provider unavailable",
			err:             errors.Join(models.ErrProviderUnavailable, errors.New("status 503")),
			expectedMessage: "Error fetching data from Reddit",
		},
		{
			name:            "Malformed response",
			err:             models.ErrMalformedResponse,
			expectedMessage: "Error fetching data from Reddit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.searcher.On("SearchContent", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := ts.do(http.MethodGet, "/api/searchReddit?content=anything", "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.expectedMessage, decodeMessage(t, rec))
		})
	}
}

func TestSearchContent_AppliesTimeout(t *testing.T) {
	ts := newTestServer()
	ts.searcher.On("SearchContent", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "x", "").Return([]models.DiscussionRecord{}, nil)

	rec := ts.do(http.MethodGet, "/api/searchReddit?content=x", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.searcher.AssertExpectations(t)
}

func TestSearchTweet(t *testing.T) {
	tests := []struct {
		name           string
		tweetErr       error
		searchErr      error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusOK},
		{name: "Unknown tweet", tweetErr: models.ErrTweetNotFound, expectedStatus: http.StatusNotFound},
		{name: "Empty query", searchErr: models.ErrEmptyQuery, expectedStatus: http.StatusUnprocessableEntity},
		{name: "Provider down", searchErr: models.ErrProviderUnavailable, expectedStatus: http.StatusBadGateway},
		{name: "Malformed payload", searchErr: models.ErrMalformedResponse, expectedStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.tweets.On("Get", mock.Anything, "tweet-1").Return(sampleTweet, tt.tweetErr)
			if tt.searchErr != nil {
				ts.searcher.On("Search", mock.Anything, sampleTweet).Return(nil, tt.searchErr)
			} else {
				ts.searcher.On("Search", mock.Anything, sampleTweet).Return([]models.DiscussionRecord{sampleRecord}, nil)
			}

			rec := ts.do(http.MethodPost, "/api/tweets/tweet-1/search", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.tweetErr != nil {
				ts.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTweets(t *testing.T) {
	ts := newTestServer()
	ts.tweets.On("List", mock.Anything).Return([]models.Tweet{sampleTweet}, nil)
	ts.tweets.On("Get", mock.Anything, "tweet-1").Return(sampleTweet, nil)
	ts.tweets.On("Get", mock.Anything, "missing").Return(models.Tweet{}, models.ErrTweetNotFound)

	rec := ts.do(http.MethodGet, "/api/tweets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tweets []models.Tweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tweets))
	assert.Equal(t, []models.Tweet{sampleTweet}, tweets)

	rec = ts.do(http.MethodGet, "/api/tweets/tweet-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/tweets/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tweet not found", decodeMessage(t, rec))
}

func TestDraftReply(t *testing.T) {
	draft := models.ReplyDraft{Content: "reply text", ThreadID: sampleRecord.Title, TweetID: "tweet-1"}

	t.Run("Uses origin tweet from record", func(t *testing.T) {
		ts := newTestServer()
		ts.tweets.On("Get", mock.Anything, "tweet-1").Return(sampleTweet, nil)
		ts.replies.On("Draft", sampleRecord, sampleTweet).Return(draft)

		body, _ := json.Marshal(draftRequest{Record: sampleRecord})
		rec := ts.do(http.MethodPost, "/api/replies/draft", string(body))

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.ReplyDraft
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "reply text", got.Content)
	})

	t.Run("Explicit tweetId wins", func(t *testing.T) {
		ts := newTestServer()
		other := models.Tweet{ID: "tweet-2", OriginalTweetLink: "https://twitter.com/me/status/2"}
		ts.tweets.On("Get", mock.Anything, "tweet-2").Return(other, nil)
		ts.replies.On("Draft", sampleRecord, other).Return(draft)

		body, _ := json.Marshal(draftRequest{Record: sampleRecord, TweetID: "tweet-2"})
		rec := ts.do(http.MethodPost, "/api/replies/draft", string(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		ts.replies.AssertExpectations(t)
	})

	t.Run("Missing tweet reference", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(http.MethodPost, "/api/replies/draft", `{"record":{"title":"x"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown tweet", func(t *testing.T) {
		ts := newTestServer()
		ts.tweets.On("Get", mock.Anything, "ghost").Return(models.Tweet{}, models.ErrTweetNotFound)
		rec := ts.do(http.MethodPost, "/api/replies/draft", `{"tweetId":"ghost"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Invalid body", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(http.MethodPost, "/api/replies/draft", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSaveReply(t *testing.T) {
	createdAt := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	draft := models.ReplyDraft{Content: "reply text", ThreadID: sampleRecord.Title, TweetID: "tweet-1"}
	saved := draft
	saved.ID = "draft-1"
	saved.CreatedAt = createdAt

	ts := newTestServer()
	ts.replies.On("Save", mock.Anything, draft).Return(saved, nil)

	body, _ := json.Marshal(draft)
	rec := ts.do(http.MethodPost, "/api/replies", string(body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.ReplyDraft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "draft-1", got.ID)
	assert.True(t, createdAt.Equal(got.CreatedAt))
	assert.Equal(t, 1, ts.server.GetMetrics().DraftsSaved)

	rec = ts.do(http.MethodPost, "/api/replies", `{"content":"no tweet"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.replies.On("Save", mock.Anything, mock.Anything).Return(models.ReplyDraft{}, errors.New("disk full"))
	rec = ts.do(http.MethodPost, "/api/replies", `{"content":"x","tweetId":"tweet-9"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, ts.server.GetMetrics().DraftsSaved)
}

func TestListReplies(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	drafts := []models.ReplyDraft{{ID: "draft-1", TweetID: "tweet-1"}}

	ts := newTestServer()
	ts.replies.On("List", mock.Anything, time.Time{}).Return(drafts, nil)
	ts.replies.On("List", mock.Anything, mock.MatchedBy(func(t time.Time) bool { return t.Equal(since) })).Return(drafts, nil)

	rec := ts.do(http.MethodGet, "/api/replies", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/replies?since=2024-01-01T00:00:00Z", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/replies?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReply(t *testing.T) {
	ts := newTestServer()
	ts.replies.On("Get", mock.Anything, "draft-1").Return(models.ReplyDraft{ID: "draft-1"}, nil)
	ts.replies.On("Get", mock.Anything, "nope").Return(models.ReplyDraft{}, models.ErrDraftNotFound)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/replies/draft-1", "").Code)

	rec := ts.do(http.MethodGet, "/api/replies/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reply draft not found", decodeMessage(t, rec))
}

func TestMetrics(t *testing.T) {
	ts := newTestServer()
	ts.searcher.On("SearchContent", mock.Anything, "ok", "").Return([]models.DiscussionRecord{sampleRecord, sampleRecord}, nil)
	ts.searcher.On("SearchContent", mock.Anything, "empty", "").Return(nil, models.ErrEmptyQuery)
	ts.searcher.On("SearchContent", mock.Anything, "down", "").Return(nil, models.ErrProviderUnavailable)

	ts.do(http.MethodGet, "/api/searchReddit?content=ok", "")
	ts.do(http.MethodGet, "/api/searchReddit?content=empty", "")
	ts.do(http.MethodGet, "/api/searchReddit?content=down", "")

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 3, metrics.Searches)
	assert.Equal(t, 1, metrics.EmptyQueries)
	assert.Equal(t, 1, metrics.SearchFailures)
	assert.Equal(t, 2, metrics.DiscussionsFound)
	assert.False(t, metrics.LastSearch.IsZero())
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodDelete, "/api/replies", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
