package models

import "time"

// Tweet is a stored social post that discussions are searched for
type Tweet struct {
	ID                string `json:"id"`
	Content           string `json:"content"`
	Username          string `json:"username,omitempty"`
	AuthorName        string `json:"authorName"`
	AuthorImg         string `json:"authorImg"`
	Likes             string `json:"likes"`
	Retweets          string `json:"retweets"`
	OriginalTweetLink string `json:"originalTweetLink"`
	CreatedAt         string `json:"createdAt"` // opaque display value
}

// RawDiscussion is a provider search hit before normalization
type RawDiscussion struct {
	Title       string
	Permalink   string  // absolute URL or provider-relative path
	Subreddit   string
	Score       int
	NumComments int
	CreatedUTC  float64 // epoch seconds as provided, 0 when absent
	Author      string
}

// DiscussionRecord is a normalized discussion thread tied to the tweet it was found for
type DiscussionRecord struct {
	Title            string  `json:"title"`
	Link             string  `json:"link"`
	Subreddit        string  `json:"subreddit"`
	Score            int     `json:"score"`
	NumComments      int     `json:"numComments"`
	CreatedAtRaw     float64 `json:"createdAt"`
	CreatedAtDisplay string  `json:"createdAtDisplay"`
	Author           string  `json:"author"`
	OriginTweetID    string  `json:"originTweetId"`
}

// ReplyDraft is a reply prepared for a discussion thread
type ReplyDraft struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	ThreadID  string    `json:"threadId"` // title of the discussion
	TweetID   string    `json:"tweetId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Digest summarizes the reply drafts saved during a period
type Digest struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Period      string                 `json:"period"` // "daily" or "weekly"
	TotalDrafts int                    `json:"total_drafts"`
	Drafts      []ReplyDraft           `json:"drafts"`
	Summary     map[string]interface{} `json:"summary"`
}
