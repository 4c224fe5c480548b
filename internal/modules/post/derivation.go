package post

import (
	"context"
	"errors"
	"fmt"

	"microblog/internal/domain"
	"microblog/internal/events"

	"gorm.io/gorm"
)

const (
	derivedExtension   = ".webp"
	derivedContentType = "image/webp"
	derivedFormat      = "webp"
)

// DerivationHandler consumes the post-created signal and produces the catalog
// variants for every attachment. It performs no internal retry; a failed run
// leaves the post untouched and the bus redelivers.
type DerivationHandler struct {
	posts   PostRepositoryInterface
	storage BlobStorage
	resizer Resizer
}

func NewDerivationHandler(posts PostRepositoryInterface, storage BlobStorage, resizer Resizer) *DerivationHandler {
	return &DerivationHandler{posts: posts, storage: storage, resizer: resizer}
}

// HandlePostCreated re-fetches the post (the signal may carry a stale copy),
// derives every missing catalog variant, and persists the whole aggregate in
// a single save. A deleted or imageless post is a successful no-op.
func (h *DerivationHandler) HandlePostCreated(ctx context.Context, evt events.PostCreated) error {
	if evt.Post == nil {
		return nil
	}
	post, err := h.posts.GetByID(ctx, evt.Post.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load post %s: %w", evt.Post.ID, err)
	}
	if len(post.Images) == 0 {
		return nil
	}

	for i := range post.Images {
		if err := h.deriveAttachment(ctx, post.ID, &post.Images[i]); err != nil {
			return err
		}
	}

	if err := h.posts.Save(ctx, post); err != nil {
		return fmt.Errorf("save variants for post %s: %w", post.ID, err)
	}
	return nil
}

func (h *DerivationHandler) deriveAttachment(ctx context.Context, postID string, a *domain.ImageAttachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The original is downloaded once per attachment, not once per size.
	// The store inverts its own URLs; the memory store and the S3 store
	// mint different bases, so key recovery cannot live here.
	original, err := h.storage.Download(ctx, h.storage.Key(a.OriginalURL))
	if err != nil {
		return fmt.Errorf("download original for attachment %s: %w", a.ID, err)
	}

	for _, size := range SizeCatalog() {
		// Redelivered triggers skip sizes a previous run already produced.
		if a.HasVariant(size.Label) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		encoded, err := h.resizer.Resize(original, size.Width, size.Height)
		if err != nil {
			return fmt.Errorf("resize attachment %s to %s: %w", a.ID, size.Label, err)
		}

		dest := BuildImagePath(postID, a.ID, size.Label, derivedExtension)
		variantURL, err := h.storage.Upload(ctx, encoded, dest, derivedContentType)
		if err != nil {
			return fmt.Errorf("upload variant %s for attachment %s: %w", size.Label, a.ID, err)
		}

		a.AddVariant(domain.ImageVariant{
			URL:    variantURL,
			Width:  size.Width,
			Height: size.Height,
			Format: derivedFormat,
			Label:  size.Label,
		})
	}
	return nil
}
