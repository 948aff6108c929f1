// Package api exposes discussion search, tweets and reply drafts over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/models"
)

// Searcher finds discussions for tweets and raw content
type Searcher interface {
	ProviderName() string
	Search(ctx context.Context, tweet models.Tweet) ([]models.DiscussionRecord, error)
	SearchContent(ctx context.Context, content, originTweetID string) ([]models.DiscussionRecord, error)
}

// TweetStore looks up stored tweets
type TweetStore interface {
	Get(ctx context.Context, id string) (models.Tweet, error)
	List(ctx context.Context) ([]models.Tweet, error)
}

// ReplyService drafts and saves replies
type ReplyService interface {
	Draft(record models.DiscussionRecord, tweet models.Tweet) models.ReplyDraft
	Save(ctx context.Context, draft models.ReplyDraft) (models.ReplyDraft, error)
	Get(ctx context.Context, id string) (models.ReplyDraft, error)
	List(ctx context.Context, since time.Time) ([]models.ReplyDraft, error)
}

// Server holds the HTTP handlers
type Server struct {
	searcher      Searcher
	tweets        TweetStore
	replies       ReplyService
	searchTimeout time.Duration
	metrics       *Metrics
	mu            sync.RWMutex
}

// Metrics holds request counters
type Metrics struct {
	Searches         int       `json:"searches"`
	SearchFailures   int       `json:"search_failures"`
	EmptyQueries     int       `json:"empty_queries"`
	DiscussionsFound int       `json:"discussions_found"`
	DraftsSaved      int       `json:"drafts_saved"`
	LastSearch       time.Time `json:"last_search"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type draftRequest struct {
	Record  models.DiscussionRecord `json:"record"`
	TweetID string                  `json:"tweetId"`
}

// NewServer creates a new API server
func NewServer(searcher Searcher, tweets TweetStore, replies ReplyService, searchTimeout time.Duration) *Server {
	return &Server{
		searcher:      searcher,
		tweets:        tweets,
		replies:       replies,
		searchTimeout: searchTimeout,
		metrics:       &Metrics{},
	}
}

// Router returns the routes served by the API
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc("/metrics", s.metricsHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/searchReddit", s.searchContentHandler).Methods(http.MethodGet)
	api.HandleFunc("/tweets", s.listTweetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/tweets/{id}", s.getTweetHandler).Methods(http.MethodGet)
	api.HandleFunc("/tweets/{id}/search", s.searchTweetHandler).Methods(http.MethodPost)
	api.HandleFunc("/replies/draft", s.draftReplyHandler).Methods(http.MethodPost)
	api.HandleFunc("/replies", s.saveReplyHandler).Methods(http.MethodPost)
	api.HandleFunc("/replies", s.listRepliesHandler).Methods(http.MethodGet)
	api.HandleFunc("/replies/{id}", s.getReplyHandler).Methods(http.MethodGet)

	return router
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetMetrics())
}

// GetMetrics returns a snapshot of the request counters
func (s *Server) GetMetrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.metrics
}

// searchContentHandler answers 200 with records or 500 with a message for every failure
func (s *Server) searchContentHandler(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("content")
	originTweetID := r.URL.Query().Get("tweetId")

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	records, err := s.searcher.SearchContent(ctx, content, originTweetID)
	s.recordSearch(len(records), err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"provider": s.searcher.ProviderName(),
			"tweet_id": originTweetID,
		}).Errorf("Discussion search failed: %v", err)
		writeError(w, http.StatusInternalServerError, s.searchErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) searchTweetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tweet, err := s.tweets.Get(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	records, err := s.searcher.Search(ctx, tweet)
	s.recordSearch(len(records), err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"provider": s.searcher.ProviderName(),
			"tweet_id": tweet.ID,
		}).Errorf("Discussion search failed: %v", err)
		writeError(w, statusForSearchError(err), s.searchErrorMessage(err))
		return
	}

	logrus.WithField("tweet_id", tweet.ID).Infof("Found %d discussions", len(records))
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) listTweetsHandler(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.tweets.List(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list tweets: %v", err)
		writeError(w, http.StatusInternalServerError, "Error loading tweets")
		return
	}
	writeJSON(w, http.StatusOK, tweets)
}

func (s *Server) getTweetHandler(w http.ResponseWriter, r *http.Request) {
	tweet, err := s.tweets.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tweet)
}

func (s *Server) draftReplyHandler(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tweetID := req.TweetID
	if tweetID == "" {
		tweetID = req.Record.OriginTweetID
	}
	if tweetID == "" {
		writeError(w, http.StatusBadRequest, "tweetId or record.originTweetId is required")
		return
	}

	tweet, err := s.tweets.Get(r.Context(), tweetID)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.replies.Draft(req.Record, tweet))
}

func (s *Server) saveReplyHandler(w http.ResponseWriter, r *http.Request) {
	var draft models.ReplyDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if draft.TweetID == "" {
		writeError(w, http.StatusBadRequest, "tweetId is required")
		return
	}

	saved, err := s.replies.Save(r.Context(), draft)
	if err != nil {
		logrus.Errorf("Failed to save reply draft: %v", err)
		writeError(w, http.StatusInternalServerError, "Error saving reply draft")
		return
	}

	s.mu.Lock()
	s.metrics.DraftsSaved++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) listRepliesHandler(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	drafts, err := s.replies.List(r.Context(), since)
	if err != nil {
		logrus.Errorf("Failed to list reply drafts: %v", err)
		writeError(w, http.StatusInternalServerError, "Error loading reply drafts")
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (s *Server) getReplyHandler(w http.ResponseWriter, r *http.Request) {
	draft, err := s.replies.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) recordSearch(found int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Searches++
	s.metrics.LastSearch = time.Now()
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		s.metrics.EmptyQueries++
	case err != nil:
		s.metrics.SearchFailures++
	default:
		s.metrics.DiscussionsFound += found
	}
}

func (s *Server) searchErrorMessage(err error) string {
	if errors.Is(err, models.ErrEmptyQuery) {
		return "No usable search terms found in content"
	}
	return fmt.Sprintf("Error fetching data from %s", s.searcher.ProviderName())
}

func statusForSearchError(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrProviderUnavailable), errors.Is(err, models.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrTweetNotFound):
		writeError(w, http.StatusNotFound, "Tweet not found")
	case errors.Is(err, models.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "Reply draft not found")
	default:
		logrus.Errorf("Lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Error loading data")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}
