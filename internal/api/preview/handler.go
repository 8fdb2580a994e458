package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xelochat/widget-engine/internal/domain"
	"github.com/xelochat/widget-engine/internal/service"
)

// Handler handles dashboard preview API requests
type Handler struct {
	previews *service.PreviewService
}

// NewHandler creates a new preview handler
func NewHandler(previews *service.PreviewService) *Handler {
	return &Handler{previews: previews}
}

// RegisterRoutes registers preview routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions/:id", h.GetView)
	r.GET("/sessions/:id/events", h.StreamEvents)
	r.POST("/sessions/:id/messages", h.SendMessage)
	r.POST("/sessions/:id/booking/open", h.OpenBooking)
	r.PUT("/sessions/:id/booking", h.UpdateBooking)
	r.POST("/sessions/:id/booking", h.SubmitBooking)
	r.DELETE("/sessions/:id/booking", h.CancelBooking)
	r.DELETE("/sessions/:id", h.CloseSession)
	r.GET("/profile/:chatbot_id", h.GetProfile)
}

// CreateSession mounts a fresh preview instance
func (h *Handler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, view, err := h.previews.CreateSession(req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "view": view})
}

// GetView returns the latest view snapshot
func (h *Handler) GetView(c *gin.Context) {
	view, err := h.previews.View(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// StreamEvents pushes view snapshots to the dashboard as SSE
func (h *Handler) StreamEvents(c *gin.Context) {
	views, cancel, err := h.previews.Subscribe(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Send the current snapshot first so the dashboard has something to
	// draw before the next state change.
	if view, err := h.previews.View(c.Param("id")); err == nil {
		writeView(c.Writer, view)
		c.Writer.Flush()
	}

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case view, ok := <-views:
			if !ok {
				return false
			}
			writeView(w, view)
			return true
		case <-clientGone:
			return false
		}
	})
}

func writeView(w io.Writer, view any) {
	data, _ := json.Marshal(view)
	fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
}

// SendMessage forwards a visitor message into the preview instance
func (h *Handler) SendMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.previews.Send(c.Param("id"), req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStreamBusy),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrProfileUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// OpenBooking opens the booking form
func (h *Handler) OpenBooking(c *gin.Context) {
	if err := h.previews.OpenBooking(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "opened"})
}

// UpdateBooking replaces the booking draft
func (h *Handler) UpdateBooking(c *gin.Context) {
	var draft domain.BookingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.previews.UpdateBookingDraft(c.Param("id"), draft); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SubmitBooking submits the booking draft
func (h *Handler) SubmitBooking(c *gin.Context) {
	err := h.previews.SubmitBooking(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "submitting"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidBooking):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CancelBooking hides the booking form
func (h *Handler) CancelBooking(c *gin.Context) {
	if err := h.previews.CancelBooking(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// CloseSession tears the preview instance down
func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.previews.CloseSession(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// GetProfile returns a bot profile for the dashboard theme preview
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.previews.Profile(c.Request.Context(),
		c.Param("chatbot_id"), c.GetHeader("X-Backend-Key"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}
