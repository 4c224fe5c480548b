package post

import (
	"time"

	"microblog/internal/domain"
)

// ImageUpload is one raw image from the request. A non-positive Size means
// the input could not report its length; the size check is skipped then, not
// failed.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Size        int64
}

type CreatePostRequest struct {
	UserID    int64
	Text      string
	Latitude  float64
	Longitude float64
	Images    []ImageUpload
}

type ImageResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	OriginalURL string `json:"original_url"`
}

type PostResponse struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	Text      string          `json:"text"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Images    []ImageResponse `json:"images,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// DefaultScreenWidth is the display width assumed when the client does not
// pass one.
const DefaultScreenWidth = 800

func toPostResponse(p *domain.Post, screenWidth int) PostResponse {
	resp := PostResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Text:      p.Text,
		Latitude:  p.Location.Latitude,
		Longitude: p.Location.Longitude,
		CreatedAt: p.CreatedAt,
	}
	for i := range p.Images {
		a := &p.Images[i]
		resp.Images = append(resp.Images, ImageResponse{
			ID:          a.ID,
			URL:         a.BestMatch(screenWidth),
			OriginalURL: a.OriginalURL,
		})
	}
	return resp
}
