package post

import "errors"

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrMissingAuthor      = errors.New("author id is required")
	ErrTooManyImages      = errors.New("too many images per post")
	ErrImageTooLarge      = errors.New("image exceeds maximum allowed size")
	ErrInvalidImageFormat = errors.New("image format is not allowed")
	ErrInvalidContentType = errors.New("image content type is not allowed")
)
