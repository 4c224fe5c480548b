package blobstore

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Download when no object exists at the path.
var ErrNotFound = errors.New("blob not found")

// Store is a content-addressed-by-path object store. Uploads overwrite any
// existing object at the same path; Delete is idempotent. Key inverts Upload:
// it recovers the storage path from a public URL the store minted.
type Store interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Key(publicURL string) string
}

// originalsSegment marks where the storage key begins inside URLs minted by
// earlier deployments that served blobs under an "images" prefix.
const originalsSegment = "/images/"

// keyFromPath recovers a key from a URL whose base the store does not
// recognize: strip through the "/images/" segment when present, otherwise
// the bare URL path is the key (defined fallback).
func keyFromPath(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	if idx := strings.Index(strings.ToLower(path), originalsSegment); idx >= 0 {
		return path[idx+len(originalsSegment):]
	}
	return strings.TrimPrefix(path, "/")
}
