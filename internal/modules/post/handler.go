package post

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"microblog/internal/domain"
	"microblog/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/posts", h.Create)
	rg.GET("/posts/:id", h.GetByID)
}

// Create handles multipart post creation: text, latitude, longitude and up
// to MaxImagesPerPost image files under "images".
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")

	lat, err := strconv.ParseFloat(c.PostForm("latitude"), 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid longitude")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	var images []ImageUpload
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable image upload")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable image upload")
			return
		}
		images = append(images, ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			Size:        fh.Size,
		})
	}

	created, err := h.service.Create(c.Request.Context(), CreatePostRequest{
		UserID:    userID,
		Text:      c.PostForm("text"),
		Latitude:  lat,
		Longitude: lon,
		Images:    images,
	})
	if err != nil {
		if isValidationErr(err) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create post")
		return
	}

	response.Success(c, http.StatusCreated, toPostResponse(created, screenWidth(c)))
}

func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "post not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load post")
		return
	}
	response.Success(c, http.StatusOK, toPostResponse(p, screenWidth(c)))
}

func screenWidth(c *gin.Context) int {
	w, err := strconv.Atoi(c.Query("width"))
	if err != nil || w <= 0 {
		return DefaultScreenWidth
	}
	return w
}

func isValidationErr(err error) bool {
	for _, target := range []error{
		ErrMissingAuthor,
		ErrTooManyImages,
		ErrImageTooLarge,
		ErrInvalidImageFormat,
		ErrInvalidContentType,
		domain.ErrEmptyText,
		domain.ErrTextTooLong,
		domain.ErrInvalidLocation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
