package feed

import "time"

type TimelinePost struct {
	PostID    string    `json:"post_id"`
	Text      string    `json:"text"`
	ImageURLs []string  `json:"image_urls,omitempty"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
