package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxPostLength    = 140
	MaxImagesPerPost = 4
	MaxImageSizeMB   = 2
)

// AllowedImageFormats are the file extensions accepted for post images.
var AllowedImageFormats = []string{"jpg", "jpeg", "png", "webp"}

// AllowedContentTypes are the declared MIME types accepted for post images.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var (
	ErrEmptyText       = errors.New("post text cannot be empty")
	ErrTextTooLong     = errors.New("post text exceeds maximum length")
	ErrInvalidLocation = errors.New("location is out of bounds")
)

// GeoLocation is a validated latitude/longitude pair.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewGeoLocation(lat, lon float64) (GeoLocation, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return GeoLocation{}, ErrInvalidLocation
	}
	return GeoLocation{Latitude: lat, Longitude: lon}, nil
}

// Post is the aggregate root the media pipeline reads and mutates.
// Text is fixed at construction; after creation the only mutations are
// appending attachments/variants and touching UpdatedAt.
type Post struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	Text      string            `json:"text"`
	Location  GeoLocation       `json:"location"`
	Images    []ImageAttachment `json:"images,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewPost(id string, userID int64, text string, location GeoLocation) (*Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if len([]rune(text)) > MaxPostLength {
		return nil, ErrTextTooLong
	}
	now := time.Now().UTC()
	return &Post{
		ID:        id,
		UserID:    userID,
		Text:      text,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Post) AddImage(a ImageAttachment) {
	p.Images = append(p.Images, a)
	p.UpdatedAt = time.Now().UTC()
}
