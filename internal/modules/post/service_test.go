package post

import (
	"context"
	"errors"
	"strings"
	"testing"

	"microblog/internal/domain"
	"microblog/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock collaborators

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, p *domain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *MockPostRepository) Save(ctx context.Context, p *domain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockBlobStorage struct {
	mock.Mock
}

func (m *MockBlobStorage) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	args := m.Called(ctx, data, path, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStorage) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStorage) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBlobStorage) Key(publicURL string) string {
	args := m.Called(publicURL)
	return args.String(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evt events.PostCreated) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func validRequest() CreatePostRequest {
	return CreatePostRequest{
		UserID:    42,
		Text:      "hello world",
		Latitude:  43.25,
		Longitude: 76.95,
	}
}

func jpegUpload(name string) ImageUpload {
	return ImageUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Data:        []byte("fake-jpeg-bytes"),
		Size:        int64(len("fake-jpeg-bytes")),
	}
}

func TestService_Create_NoImages(t *testing.T) {
	repo := new(MockPostRepository)
	storage := new(MockBlobStorage)
	publisher := new(MockPublisher)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	service := NewService(repo, storage, publisher)
	created, err := service.Create(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(42), created.UserID)
	assert.Empty(t, created.Images)
	storage.AssertNotCalled(t, "Upload")
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_Create_WithImage_UploadsOriginalAndPublishes(t *testing.T) {
	repo := new(MockPostRepository)
	storage := new(MockBlobStorage)
	publisher := new(MockPublisher)

	storage.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, "posts/") && strings.HasSuffix(path, "-original.jpg")
	}), "image/jpeg").Return("http://cdn/images/posts/p/img-original.jpg", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(evt events.PostCreated) bool {
		return evt.Post != nil && len(evt.Post.Images) == 1
	})).Return(nil)

	req := validRequest()
	req.Images = []ImageUpload{jpegUpload("photo.jpg")}

	service := NewService(repo, storage, publisher)
	created, err := service.Create(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, created.Images, 1)
	assert.Equal(t, "http://cdn/images/posts/p/img-original.jpg", created.Images[0].OriginalURL)
	assert.Equal(t, created.ID, created.Images[0].PostID)
	assert.Empty(t, created.Images[0].Variants)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_Create_ValidationFailuresHaveNoSideEffects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreatePostRequest)
		wantErr error
	}{
		{
			name:    "missing author",
			mutate:  func(r *CreatePostRequest) { r.UserID = 0 },
			wantErr: ErrMissingAuthor,
		},
		{
			name:    "empty text",
			mutate:  func(r *CreatePostRequest) { r.Text = "  " },
			wantErr: domain.ErrEmptyText,
		},
		{
			name:    "text too long",
			mutate:  func(r *CreatePostRequest) { r.Text = strings.Repeat("x", domain.MaxPostLength+1) },
			wantErr: domain.ErrTextTooLong,
		},
		{
			name:    "latitude out of range",
			mutate:  func(r *CreatePostRequest) { r.Latitude = 91 },
			wantErr: domain.ErrInvalidLocation,
		},
		{
			name: "too many images",
			mutate: func(r *CreatePostRequest) {
				for i := 0; i <= domain.MaxImagesPerPost; i++ {
					r.Images = append(r.Images, jpegUpload("a.jpg"))
				}
			},
			wantErr: ErrTooManyImages,
		},
		{
			name: "image too large",
			mutate: func(r *CreatePostRequest) {
				img := jpegUpload("big.jpg")
				img.Size = domain.MaxImageSizeMB*1024*1024 + 1
				r.Images = []ImageUpload{img}
			},
			wantErr: ErrImageTooLarge,
		},
		{
			name: "extension not allowed",
			mutate: func(r *CreatePostRequest) {
				img := jpegUpload("file.bmp")
				r.Images = []ImageUpload{img}
			},
			wantErr: ErrInvalidImageFormat,
		},
		{
			name: "content type not allowed",
			mutate: func(r *CreatePostRequest) {
				img := jpegUpload("file.jpg")
				img.ContentType = "application/pdf"
				r.Images = []ImageUpload{img}
			},
			wantErr: ErrInvalidContentType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			storage := new(MockBlobStorage)
			publisher := new(MockPublisher)

			req := validRequest()
			tc.mutate(&req)

			service := NewService(repo, storage, publisher)
			_, err := service.Create(context.Background(), req)

			assert.ErrorIs(t, err, tc.wantErr)
			storage.AssertNotCalled(t, "Upload")
			repo.AssertNotCalled(t, "Create")
			publisher.AssertNotCalled(t, "Publish")
		})
	}
}

func TestService_Create_UnknownLengthSkipsSizeCheck(t *testing.T) {
	repo := new(MockPostRepository)
	storage := new(MockBlobStorage)
	publisher := new(MockPublisher)

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("http://cdn/images/posts/p/img-original.jpg", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	service := NewService(repo, storage, publisher)

	// Both non-positive lengths mean "unknown", never "too large".
	for _, size := range []int64{-1, 0} {
		img := jpegUpload("unknown.jpg")
		img.Size = size

		req := validRequest()
		req.Images = []ImageUpload{img}

		_, err := service.Create(context.Background(), req)
		assert.NoError(t, err, "size %d", size)
	}
}

func TestService_Create_UploadFailureAbortsEverything(t *testing.T) {
	repo := new(MockPostRepository)
	storage := new(MockBlobStorage)
	publisher := new(MockPublisher)

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("s3 down"))

	req := validRequest()
	req.Images = []ImageUpload{jpegUpload("photo.jpg")}

	service := NewService(repo, storage, publisher)
	_, err := service.Create(context.Background(), req)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create")
	publisher.AssertNotCalled(t, "Publish")
}

func TestService_Create_PersistenceFailureCleansUpOriginals(t *testing.T) {
	repo := new(MockPostRepository)
	storage := new(MockBlobStorage)
	publisher := new(MockPublisher)

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("http://cdn/images/posts/p/img-original.jpg", nil)
	storage.On("Delete", mock.Anything, mock.Anything).Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	req := validRequest()
	req.Images = []ImageUpload{jpegUpload("photo.jpg")}

	service := NewService(repo, storage, publisher)
	_, err := service.Create(context.Background(), req)

	assert.Error(t, err)
	storage.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish")
}

func TestService_GetByID_NotFound(t *testing.T) {
	repo := new(MockPostRepository)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	service := NewService(repo, new(MockBlobStorage), new(MockPublisher))
	_, err := service.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrPostNotFound)
}
