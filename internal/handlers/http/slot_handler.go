package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
	"mosaic/internal/core/services"
	"mosaic/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SlotHandler struct {
	registry ports.RegistryService
	sessions ports.SessionController
	logger   *zap.Logger
}

func NewSlotHandler(
	registry ports.RegistryService,
	sessions ports.SessionController,
	logger *zap.Logger,
) *SlotHandler {
	return &SlotHandler{
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SlotHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/streams", h.ListSlots)
		api.POST("/streams/bulk", h.ReplaceSlots)
		api.DELETE("/streams/bulk", h.ClearSlots)
		api.PUT("/streams/:id", h.UpdateSlot)

		api.GET("/streams/grid/config", h.GetGridConfig)
		api.POST("/streams/grid/config", h.SetGridConfig)

		// Playback session control
		api.POST("/streams/:id/load", h.LoadSlot)
		api.POST("/streams/:id/play", h.PlaySlot)
		api.POST("/streams/:id/pause", h.PauseSlot)
		api.POST("/streams/:id/mute", h.MuteSlot)
		api.POST("/streams/:id/quality", h.SelectQuality)
		api.GET("/streams/:id/tracks", h.ListTracks)
		api.POST("/streams/:id/events", h.IngestEvent)

		api.GET("/grid/state", h.GetGridState)
		api.POST("/grid/autoplay/dismiss", h.DismissAutoplayBanner)
	}
}

func (h *SlotHandler) ListSlots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"streams": h.registry.Slots(),
	})
}

type slotPayload struct {
	Name    string            `json:"name" binding:"required,max=100"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Cookies string            `json:"cookies"`
	Active  bool              `json:"is_active"`
}

func (p *slotPayload) validate() error {
	if err := validation.ValidateSlotName(p.Name); err != nil {
		return err
	}
	if err := validation.ValidateStreamURL(p.URL); err != nil {
		return err
	}
	return validation.ValidateHeaders(p.Headers)
}

// ReplaceSlots atomically swaps the entire slot list. Existing sessions are
// disposed first so no tile keeps playing a source that no longer exists.
func (h *SlotHandler) ReplaceSlots(c *gin.Context) {
	var req struct {
		Streams []slotPayload `json:"streams" binding:"required,max=49"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slots := make([]*domain.Slot, 0, len(req.Streams))
	for i, payload := range req.Streams {
		if err := payload.validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"index": i,
			})
			return
		}
		slots = append(slots, &domain.Slot{
			Name:      payload.Name,
			URL:       payload.URL,
			Headers:   payload.Headers,
			Cookies:   payload.Cookies,
			Active:    payload.Active,
			CreatedAt: time.Now(),
		})
	}

	h.sessions.DisposeAll()

	created, err := h.registry.ReplaceAll(c.Request.Context(), slots)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"streams": created,
	})
}

func (h *SlotHandler) ClearSlots(c *gin.Context) {
	h.sessions.DisposeAll()

	if err := h.registry.Clear(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "cleared",
	})
}

func (h *SlotHandler) UpdateSlot(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	var req struct {
		Name    *string            `json:"name"`
		URL     *string            `json:"url"`
		Headers *map[string]string `json:"headers"`
		Cookies *string            `json:"cookies"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		if err := validation.ValidateSlotName(*req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.URL != nil {
		if err := validation.ValidateStreamURL(*req.URL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Headers != nil {
		if err := validation.ValidateHeaders(*req.Headers); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	previous, err := h.registry.SlotByID(slotID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	previousURL := previous.URL

	slot, err := h.registry.UpdateSlot(c.Request.Context(), slotID, domain.SlotPatch{
		Name:    req.Name,
		URL:     req.URL,
		Headers: req.Headers,
		Cookies: req.Cookies,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// A source change invalidates the running session; reload off the
	// request path so a slow origin does not hold up the response.
	if req.URL != nil && *req.URL != previousURL {
		h.sessions.Dispose(slotID)
		if slot.Configured() {
			go func(id domain.SlotID) {
				if err := h.sessions.Load(context.Background(), id); err != nil {
					h.logger.Warn("reload after url change failed",
						zap.String("slot_id", string(id)),
						zap.Error(err),
					)
				}
			}(slotID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"stream": slot,
	})
}

func (h *SlotHandler) GetGridConfig(c *gin.Context) {
	slots := h.registry.Slots()
	ids := make([]domain.SlotID, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"config": domain.GridConfig{
			Size:    h.registry.GridSize(),
			Streams: ids,
		},
	})
}

func (h *SlotHandler) SetGridConfig(c *gin.Context) {
	var req struct {
		GridSize int `json:"grid_size" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.registry.Resize(c.Request.Context(), req.GridSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	for _, id := range removed {
		h.sessions.Dispose(id)
	}

	c.JSON(http.StatusOK, gin.H{
		"grid_size": h.registry.GridSize(),
		"columns":   services.Columns(h.registry.GridSize()),
		"rows":      services.Rows(h.registry.GridSize()),
		"removed":   removed,
	})
}

func (h *SlotHandler) LoadSlot(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	if err := h.sessions.Load(c.Request.Context(), slotID); err != nil {
		// Load failures land in the slot's status; the caller polls or
		// listens on the websocket. Only report request-level problems.
		if errors.Is(err, domain.ErrSlotNotFound) || errors.Is(err, domain.ErrNoSource) {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": h.sessions.Status(slotID),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) PlaySlot(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	if err := h.sessions.Play(c.Request.Context(), slotID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) PauseSlot(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	if err := h.sessions.Pause(slotID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) MuteSlot(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	if err := h.sessions.ToggleMute(slotID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) SelectQuality(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	var req struct {
		TrackID string `json:"track_id" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.SelectQuality(slotID, domain.TrackID(req.TrackID)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) ListTracks(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	tracks, err := h.sessions.Tracks(slotID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks": tracks,
	})
}

func (h *SlotHandler) IngestEvent(c *gin.Context) {
	slotID := domain.SlotID(c.Param("id"))

	var req struct {
		Kind    string `json:"kind" binding:"required"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := domain.PlayerEvent{
		Kind:    domain.EventKind(req.Kind),
		Code:    req.Code,
		Message: req.Message,
	}

	if err := h.sessions.HandleEvent(slotID, ev); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": h.sessions.Status(slotID),
	})
}

func (h *SlotHandler) GetGridState(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildGridState())
}

func (h *SlotHandler) DismissAutoplayBanner(c *gin.Context) {
	h.sessions.DismissAutoplayBanner()
	c.JSON(http.StatusOK, gin.H{
		"status": "dismissed",
	})
}

// GridStateResponse mirrors the websocket grid_state payload.
type GridStateResponse struct {
	GridSize        int             `json:"grid_size"`
	Columns         int             `json:"columns"`
	Rows            int             `json:"rows"`
	AutoplayBlocked bool            `json:"autoplay_blocked"`
	Slots           []GridStateSlot `json:"slots"`
}

type GridStateSlot struct {
	Slot   *domain.Slot      `json:"slot"`
	Status domain.SlotStatus `json:"status"`
}

func (h *SlotHandler) buildGridState() GridStateResponse {
	slots := h.registry.Slots()
	size := h.registry.GridSize()

	state := GridStateResponse{
		GridSize:        size,
		Columns:         services.Columns(size),
		Rows:            services.Rows(size),
		AutoplayBlocked: h.sessions.AutoplayBlocked(),
		Slots:           make([]GridStateSlot, 0, len(slots)),
	}
	for _, slot := range slots {
		state.Slots = append(state.Slots, GridStateSlot{
			Slot:   slot,
			Status: h.sessions.Status(slot.ID),
		})
	}
	return state
}

func (h *SlotHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSlotNotFound), errors.Is(err, domain.ErrTrackNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidGridSize), errors.Is(err, domain.ErrNoSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotLoaded), errors.Is(err, domain.ErrSessionDisposed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
