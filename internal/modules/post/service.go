package post

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"microblog/internal/domain"
	"microblog/internal/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles post creation and reads. Originals are uploaded before the
// aggregate is persisted; the post-created signal is published only after the
// persistence transaction committed.
type Service struct {
	posts     PostRepositoryInterface
	storage   BlobStorage
	publisher Publisher
}

func NewService(posts PostRepositoryInterface, storage BlobStorage, publisher Publisher) *Service {
	return &Service{posts: posts, storage: storage, publisher: publisher}
}

func (s *Service) Create(ctx context.Context, req CreatePostRequest) (*domain.Post, error) {
	if req.UserID == 0 {
		return nil, ErrMissingAuthor
	}
	location, err := domain.NewGeoLocation(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}
	if err := validateImages(req.Images); err != nil {
		return nil, err
	}

	post, err := domain.NewPost(uuid.NewString(), req.UserID, req.Text, location)
	if err != nil {
		return nil, err
	}

	var uploadedPaths []string
	cleanup := func() {
		for _, p := range uploadedPaths {
			_ = s.storage.Delete(ctx, p) // best-effort rollback of originals
		}
	}

	for _, img := range req.Images {
		imageID := uuid.NewString()
		ext := strings.ToLower(filepath.Ext(img.Filename))
		path := BuildImagePath(post.ID, imageID, SizeOriginal, ext)

		url, err := s.storage.Upload(ctx, img.Data, path, img.ContentType)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("upload original %s: %w", img.Filename, err)
		}
		uploadedPaths = append(uploadedPaths, path)

		post.AddImage(domain.NewImageAttachment(imageID, post.ID, url))
	}

	if err := s.posts.Create(ctx, post); err != nil {
		cleanup()
		return nil, fmt.Errorf("persist post: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.PostCreated{Post: post}); err != nil {
		return nil, fmt.Errorf("publish post created: %w", err)
	}
	return post, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

func validateImages(images []ImageUpload) error {
	if len(images) > domain.MaxImagesPerPost {
		return ErrTooManyImages
	}
	for _, img := range images {
		// Size is only checked when the input reported a length.
		if img.Size > 0 && img.Size > domain.MaxImageSizeMB*1024*1024 {
			return ErrImageTooLarge
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
		if !containsFold(domain.AllowedImageFormats, ext) {
			return ErrInvalidImageFormat
		}
		if !containsFold(domain.AllowedContentTypes, img.ContentType) {
			return ErrInvalidContentType
		}
	}
	return nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
