package engine

import "time"

// --- Normalized content items ---

// Video is a normalized YouTube video from a channel search.
// PublishTime keeps YouTube's relative form ("2 hours ago", "Streamed 1 day ago");
// use ParseRelativeTime to compare.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ShortDesc   string `json:"short_desc"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration"`
	Views       string `json:"views"`
	PublishTime string `json:"publish_time"`
	URLSuffix   string `json:"url_suffix"`
	LongDesc    string `json:"long_desc,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
}

// PayloadLen reports the heavy-payload size used by budget trimming.
func (v Video) PayloadLen() int { return len(v.Transcript) }

// VideoTranscript is one entry of a bulk transcript extraction.
type VideoTranscript struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Post is a normalized microblog post.
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	URL       string    `json:"url"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	CreatedAt time.Time `json:"created_at"`
}

// PayloadLen is zero: posts carry no optional heavy payload.
func (p Post) PayloadLen() int { return 0 }

// Article is a normalized newsletter post.
type Article struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Publication string    `json:"publication_name"`
	Content     string    `json:"content,omitempty"`
	Preview     string    `json:"preview,omitempty"`
}

// PayloadLen reports the full-body size used by budget trimming.
func (a Article) PayloadLen() int { return len(a.Content) }
