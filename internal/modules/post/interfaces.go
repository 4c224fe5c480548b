package post

import (
	"context"

	"microblog/internal/domain"
	"microblog/internal/events"
)

// PostRepositoryInterface — only the methods the post module uses. Save
// upserts the post together with its nested attachments and variants in one
// transaction.
type PostRepositoryInterface interface {
	Create(ctx context.Context, p *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Save(ctx context.Context, p *domain.Post) error
}

// BlobStorage mirrors blobstore.Store so tests can substitute it. Key
// inverts Upload: it recovers the storage path from a minted public URL.
type BlobStorage interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Key(publicURL string) string
}

// Resizer re-encodes image bytes to fit a bounding box.
type Resizer interface {
	Resize(data []byte, targetWidth, targetHeight int) ([]byte, error)
}

// Publisher emits the post-created signal after creation commits.
type Publisher interface {
	Publish(ctx context.Context, evt events.PostCreated) error
}
