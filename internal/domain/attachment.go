package domain

import "time"

// ImageAttachment links a post to one uploaded original image.
// OriginalURL is set once at construction and never changes; the derivation
// pipeline only ever appends variants.
type ImageAttachment struct {
	ID          string         `json:"id"`
	PostID      string         `json:"post_id"`
	OriginalURL string         `json:"original_url"`
	Variants    []ImageVariant `json:"variants,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewImageAttachment(id, postID, originalURL string) ImageAttachment {
	return ImageAttachment{
		ID:          id,
		PostID:      postID,
		OriginalURL: originalURL,
		CreatedAt:   time.Now().UTC(),
	}
}

// ImageVariant is a resized derivative of the original, immutable once built.
type ImageVariant struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Label  string `json:"label"`
}

func (a *ImageAttachment) AddVariant(v ImageVariant) {
	a.Variants = append(a.Variants, v)
}

// HasVariant reports whether a variant with the given size label exists.
func (a *ImageAttachment) HasVariant(label string) bool {
	for _, v := range a.Variants {
		if v.Label == label {
			return true
		}
	}
	return false
}

// BestMatch picks the stored variant whose width is closest to the requested
// display width, first match winning on ties. With no variants yet the
// original URL is returned, so an underived attachment still renders.
func (a *ImageAttachment) BestMatch(width int) string {
	if len(a.Variants) == 0 {
		return a.OriginalURL
	}
	best := a.Variants[0]
	bestDiff := absInt(best.Width - width)
	for _, v := range a.Variants[1:] {
		if d := absInt(v.Width - width); d < bestDiff {
			best = v
			bestDiff = d
		}
	}
	return best.URL
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
