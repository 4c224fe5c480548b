package stream

import (
	"context"
	"net/http"
	"time"

	"microblog/internal/events"
	"microblog/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the web client host is fixed
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewPostMessage is pushed to every connected client when a post is created.
type NewPostMessage struct {
	Type      string    `json:"type"`
	PostID    string    `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
}

func NewHandler(hub *Hub, jwtService *jwt.Service) *Handler {
	return &Handler{hub: hub, jwtService: jwtService}
}

// SubscribeBus wires the hub behind the post-created signal. Broadcast never
// fails the delivery; a lost websocket write is not a pipeline error.
func (h *Handler) SubscribeBus(bus *events.Bus) {
	bus.SubscribePostCreated(func(_ context.Context, evt events.PostCreated) error {
		if evt.Post == nil {
			return nil
		}
		h.hub.Broadcast(NewPostMessage{
			Type:      "post_created",
			PostID:    evt.Post.ID,
			UserID:    evt.Post.UserID,
			Text:      evt.Post.Text,
			CreatedAt: evt.Post.CreatedAt,
		})
		return nil
	})
}

// HandleWebSocket upgrades GET /stream?token=JWT. Auth rides a query
// parameter because websocket clients cannot set headers.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.hub.Register(claims.UserID, conn)

	// Drain client frames until the connection drops; the stream is one-way.
	go func() {
		defer h.hub.Unregister(claims.UserID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
