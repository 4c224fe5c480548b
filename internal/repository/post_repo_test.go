package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"microblog/internal/database"
	"microblog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func makePost(t *testing.T, id string, userID int64, createdAt time.Time) *domain.Post {
	t.Helper()
	loc, err := domain.NewGeoLocation(55.75, 37.61)
	require.NoError(t, err)
	p, err := domain.NewPost(id, userID, "post "+id, loc)
	require.NoError(t, err)
	p.CreatedAt = createdAt
	p.UpdatedAt = createdAt
	return p
}

func TestPostRepository_CreateAndGetByID(t *testing.T) {
	repo := NewPostRepository(testDB(t))
	ctx := context.Background()

	p := makePost(t, "p1", 42, time.Now().UTC().Truncate(time.Second))
	att := domain.NewImageAttachment("a1", p.ID, "http://localhost/images/posts/p1/a1-original.jpg")
	p.AddImage(att)

	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.UserID, got.UserID)
	assert.Equal(t, p.Text, got.Text)
	assert.InDelta(t, 55.75, got.Location.Latitude, 1e-9)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "a1", got.Images[0].ID)
	assert.Equal(t, att.OriginalURL, got.Images[0].OriginalURL)
	assert.Empty(t, got.Images[0].Variants)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_SavePersistsVariants(t *testing.T) {
	repo := NewPostRepository(testDB(t))
	ctx := context.Background()

	p := makePost(t, "p1", 42, time.Now().UTC())
	p.AddImage(domain.NewImageAttachment("a1", p.ID, "http://localhost/images/posts/p1/a1-original.jpg"))
	require.NoError(t, repo.Create(ctx, p))

	p.Images[0].AddVariant(domain.ImageVariant{
		URL: "http://localhost/images/posts/p1/a1-medium.webp", Width: 800, Height: 600, Format: "webp", Label: "medium",
	})
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	require.Len(t, got.Images[0].Variants, 1)
	assert.Equal(t, "medium", got.Images[0].Variants[0].Label)
	assert.Equal(t, 800, got.Images[0].Variants[0].Width)
}

func TestPostRepository_SaveIsIdempotentPerLabel(t *testing.T) {
	repo := NewPostRepository(testDB(t))
	ctx := context.Background()

	p := makePost(t, "p1", 42, time.Now().UTC())
	p.AddImage(domain.NewImageAttachment("a1", p.ID, "http://localhost/images/posts/p1/a1-original.jpg"))
	require.NoError(t, repo.Create(ctx, p))

	p.Images[0].AddVariant(domain.ImageVariant{
		URL: "http://localhost/images/posts/p1/a1-thumbnail.webp", Width: 200, Height: 200, Format: "webp", Label: "thumbnail",
	})
	require.NoError(t, repo.Save(ctx, p))

	// A redelivered derivation saves the same variant again; the row is
	// updated in place, never duplicated.
	p.Images[0].Variants[0].URL = "http://cdn.example.com/posts/p1/a1-thumbnail.webp"
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Images[0].Variants, 1)
	assert.Equal(t, "http://cdn.example.com/posts/p1/a1-thumbnail.webp", got.Images[0].Variants[0].URL)
}

func TestPostRepository_GetPage_NewestFirstWithCursor(t *testing.T) {
	repo := NewPostRepository(testDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := makePost(t, fmt.Sprintf("p%d", i), 42, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, p))
	}

	page, err := repo.GetPage(ctx, time.Time{}, "", 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "p4", page[0].ID)
	assert.Equal(t, "p3", page[1].ID)
	assert.Equal(t, "p2", page[2].ID)

	// Cursor at p2's timestamp: only strictly older posts come back.
	older, err := repo.GetPage(ctx, page[2].CreatedAt, page[2].ID, 10)
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, "p1", older[0].ID)
	assert.Equal(t, "p0", older[1].ID)
}

func TestPostRepository_GetPage_TiedTimestampsAreNotSkipped(t *testing.T) {
	repo := NewPostRepository(testDB(t))
	ctx := context.Background()

	// Three posts in the same instant; the cursor's id tiebreak must walk
	// them instead of dropping the whole timestamp.
	at := time.Now().UTC().Truncate(time.Second)
	for _, id := range []string{"pa", "pb", "pc"} {
		require.NoError(t, repo.Create(ctx, makePost(t, id, 42, at)))
	}

	page, err := repo.GetPage(ctx, time.Time{}, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "pc", page[0].ID)
	assert.Equal(t, "pb", page[1].ID)

	rest, err := repo.GetPage(ctx, page[1].CreatedAt, page[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "pa", rest[0].ID)
}

func TestPostRepository_GetPage_EmptyResult(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	page, err := repo.GetPage(context.Background(), time.Time{}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}
