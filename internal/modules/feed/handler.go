package feed

import (
	"errors"
	"net/http"
	"strconv"

	"microblog/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultScreenWidth = 800

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/feed", h.GetFeed)
}

func (h *Handler) GetFeed(c *gin.Context) {
	width, err := strconv.Atoi(c.Query("width"))
	if err != nil || width <= 0 {
		width = defaultScreenWidth
	}

	timeline, err := h.service.GetTimeline(c.Request.Context(), c.Query("cursor"), width)
	if err != nil {
		if errors.Is(err, ErrCursorNotFound) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown cursor")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load feed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"posts": timeline})
}
