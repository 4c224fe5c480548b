package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microblog/internal/domain"

	"gorm.io/gorm"
)

// FeedPageSize is the fixed number of posts per timeline page.
const FeedPageSize = 10

// PostReader — the slice of the post repository the feed needs.
type PostReader interface {
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	GetPage(ctx context.Context, before time.Time, beforeID string, limit int) ([]domain.Post, error)
}

// UserReader resolves authors for a page of posts.
type UserReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
}

var ErrCursorNotFound = errors.New("cursor post not found")

// Service assembles the timeline: a keyset page of recent posts with each
// attachment resolved to its best-fit variant for the requested width.
type Service struct {
	posts PostReader
	users UserReader
}

func NewService(posts PostReader, users UserReader) *Service {
	return &Service{posts: posts, users: users}
}

// GetTimeline returns the next page older than the cursor post. An empty
// cursor starts from the newest posts.
func (s *Service) GetTimeline(ctx context.Context, cursorPostID string, screenWidth int) ([]TimelinePost, error) {
	var before time.Time
	var beforeID string
	if cursorPostID != "" {
		cursor, err := s.posts.GetByID(ctx, cursorPostID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCursorNotFound
			}
			return nil, fmt.Errorf("load cursor post: %w", err)
		}
		before = cursor.CreatedAt
		beforeID = cursor.ID
	}

	page, err := s.posts.GetPage(ctx, before, beforeID, FeedPageSize)
	if err != nil {
		return nil, fmt.Errorf("load feed page: %w", err)
	}
	if len(page) == 0 {
		return []TimelinePost{}, nil
	}

	authors, err := s.resolveAuthors(ctx, page)
	if err != nil {
		return nil, err
	}

	timeline := make([]TimelinePost, 0, len(page))
	for i := range page {
		p := &page[i]
		var urls []string
		for j := range p.Images {
			urls = append(urls, p.Images[j].BestMatch(screenWidth))
		}
		timeline = append(timeline, TimelinePost{
			PostID:    p.ID,
			Text:      p.Text,
			ImageURLs: urls,
			Username:  authors[p.UserID],
			CreatedAt: p.CreatedAt,
		})
	}
	return timeline, nil
}

func (s *Service) resolveAuthors(ctx context.Context, page []domain.Post) (map[int64]string, error) {
	seen := map[int64]bool{}
	var ids []int64
	for i := range page {
		if !seen[page[i].UserID] {
			seen[page[i].UserID] = true
			ids = append(ids, page[i].UserID)
		}
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	byID := make(map[int64]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	return byID, nil
}
