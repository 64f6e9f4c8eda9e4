package commentary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eleven-am/live-commentary/internal/capture"
	"github.com/eleven-am/live-commentary/internal/dto"
	"github.com/eleven-am/live-commentary/internal/screenshare"
	"github.com/eleven-am/live-commentary/internal/settings"
	"github.com/eleven-am/live-commentary/internal/shared"
	"github.com/eleven-am/live-commentary/internal/vision"
	"github.com/labstack/echo/v4"
)

// Screenshare answers the host page's side of a screen share.
type Screenshare interface {
	Offer(ctx context.Context, widgetID, sdp string) (string, error)
	Deny(widgetID string) error
}

type Handler struct {
	manager     *Manager
	screenshare Screenshare
	limits      *rateLimiterStore
	logger      *slog.Logger
}

func NewHandler(manager *Manager, ss Screenshare, limits RateLimiterConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager:     manager,
		screenshare: ss,
		limits:      newRateLimiterStore(limits),
		logger:      logger.With("component", "widget_handler"),
	}
}

// Close releases the handler's background work.
func (h *Handler) Close() {
	h.limits.Close()
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/capture/toggle", h.ToggleCapture)
	g.GET("/:id/messages", h.ListMessages)
	g.POST("/:id/messages", h.SendMessage, h.limits.middleware())
	g.GET("/:id/settings", h.GetSettings)
	g.PATCH("/:id/settings", h.UpdateSettings)
	g.GET("/:id/context", h.GetContext)
	g.PUT("/:id/context", h.SetContext)
	g.GET("/:id/queue", h.GetQueue)
	g.DELETE("/:id/seen", h.ResetSeen)
	g.POST("/:id/screenshare/offer", h.ScreenshareOffer)
	g.POST("/:id/screenshare/deny", h.ScreenshareDeny)
	g.GET("/:id/ws", h.Feed)
}

func (h *Handler) widget(c echo.Context) (*Orchestrator, error) {
	o, ok := h.manager.Get(c.Param("id"))
	if !ok {
		return nil, shared.NotFound("widget_not_found", "widget not found")
	}
	return o, nil
}

func toWidgetResponse(s State) dto.WidgetResponse {
	return dto.WidgetResponse{
		ID:         s.ID,
		Mode:       string(s.Mode),
		Origin:     s.Origin,
		Capturing:  s.Capturing,
		Starting:   s.Starting,
		Generating: s.Generating,
		Loading: dto.LoadingResponse{
			Status:   string(s.Loading.Status),
			Message:  s.Loading.Message,
			Progress: s.Loading.Progress,
		},
		Queued:    s.Queued,
		Seen:      s.Seen,
		LastError: s.LastError,
	}
}

func toSettingsResponse(s settings.Settings) dto.SettingsResponse {
	s = s.Redacted()
	return dto.SettingsResponse{
		CaptureInterval: s.CaptureInterval,
		Temperature:     s.Temperature,
		TopK:            s.TopK,
		TopP:            s.TopP,
		Model:           s.Model,
		RemoteURL:       s.RemoteURL,
		APIKey:          s.APIKey,
	}
}

func toSettingsPatch(p *dto.SettingsPatch) *settings.Patch {
	if p == nil {
		return nil
	}
	return &settings.Patch{
		CaptureInterval: p.CaptureInterval,
		Temperature:     p.Temperature,
		TopK:            p.TopK,
		TopP:            p.TopP,
		Model:           p.Model,
		RemoteURL:       p.RemoteURL,
		APIKey:          p.APIKey,
	}
}

func toMessageResponses(msgs []ChatMessage) []dto.ChatMessageResponse {
	out := make([]dto.ChatMessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = dto.ChatMessageResponse{
			ID:         m.ID,
			Username:   m.Username,
			Color:      m.Color,
			Text:       m.Text,
			Attachment: m.Attachment,
		}
	}
	return out
}

// List godoc
// @Summary      List widgets
// @Description  Returns the state of every live widget
// @Tags         widgets
// @Produce      json
// @Success      200  {object}  dto.WidgetListResponse
// @Router       /widgets [get]
func (h *Handler) List(c echo.Context) error {
	states := h.manager.List()
	widgets := make([]dto.WidgetResponse, len(states))
	for i, s := range states {
		widgets[i] = toWidgetResponse(s)
	}
	return c.JSON(http.StatusOK, dto.WidgetListResponse{Widgets: widgets})
}

// Create godoc
// @Summary      Create a widget
// @Description  Creates a commentary widget. Settings are resolved from defaults, the given config and the origin's persisted record
// @Tags         widgets
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateWidgetRequest  true  "Widget options"
// @Success      201      {object}  dto.WidgetResponse
// @Failure      400      {object}  shared.APIError
// @Router       /widgets [post]
func (h *Handler) Create(c echo.Context) error {
	var req dto.CreateWidgetRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	opts := WidgetOptions{
		Mode:              capture.Mode(req.Mode),
		Origin:            req.Origin,
		Overrides:         toSettingsPatch(req.Settings),
		Context:           req.Context,
		Usernames:         req.Usernames,
		Transform:         req.Transform,
		ExternalSourceURL: req.ExternalSourceURL,
	}
	if opts.Origin == "" {
		opts.Origin = c.Request().Header.Get(echo.HeaderOrigin)
	}
	if req.Prompts != nil {
		opts.Prompts = vision.Prompts{
			System:   req.Prompts.System,
			Interval: req.Prompts.Interval,
			Chat:     req.Prompts.Chat,
		}
	}

	o, err := h.manager.Create(c.Request().Context(), opts)
	switch {
	case errors.Is(err, ErrInvalidMode):
		return shared.BadRequest("invalid_mode", err.Error())
	case errors.Is(err, ErrUnknownTransform):
		return shared.BadRequest("invalid_transform", err.Error())
	case errors.Is(err, settings.ErrInvalidSettings):
		return shared.BadRequest("invalid_settings", err.Error())
	case err != nil:
		h.logger.Error("failed to create widget", "error", err)
		return shared.InternalError("create_failed", "failed to create widget")
	}

	return c.JSON(http.StatusCreated, toWidgetResponse(o.State()))
}

// Get godoc
// @Summary      Get a widget
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      200  {object}  dto.WidgetResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWidgetResponse(o.State()))
}

// Delete godoc
// @Summary      Delete a widget
// @Description  Stops capture, halts both loops and discards the widget
// @Tags         widgets
// @Param        id   path  string  true  "Widget ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if !h.manager.Remove(c.Param("id")) {
		return shared.NotFound("widget_not_found", "widget not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleCapture godoc
// @Summary      Toggle capture
// @Description  Pauses an active session or starts a new one. Starting is asynchronous; watch the feed for the outcome
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      202  {object}  dto.WidgetResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/capture/toggle [post]
func (h *Handler) ToggleCapture(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	o.ToggleCapture()
	return c.JSON(http.StatusAccepted, toWidgetResponse(o.State()))
}

// ListMessages godoc
// @Summary      List chat messages
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      200  {object}  dto.MessageListResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/messages [get]
func (h *Handler) ListMessages(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.MessageListResponse{Messages: toMessageResponses(o.Messages())})
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Posts the viewer's message, starts capture if needed and asks the model to respond to it
// @Tags         widgets
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Widget ID"
// @Param        request  body      dto.SendMessageRequest  true  "Message"
// @Success      202      {object}  dto.ChatMessageResponse
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Failure      429      {object}  shared.APIError
// @Router       /widgets/{id}/messages [post]
func (h *Handler) SendMessage(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return shared.BadRequest("missing_text", "text is required")
	}

	msg, _ := o.SendMessage(text)
	return c.JSON(http.StatusAccepted, toMessageResponses([]ChatMessage{msg})[0])
}

// GetSettings godoc
// @Summary      Get widget settings
// @Description  The API key is redacted
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      200  {object}  dto.SettingsResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/settings [get]
func (h *Handler) GetSettings(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSettingsResponse(o.Settings()))
}

// UpdateSettings godoc
// @Summary      Update widget settings
// @Description  Applies a partial update, persists it for the widget's origin and restarts the capture timer when the interval changes
// @Tags         widgets
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Widget ID"
// @Param        request  body      dto.SettingsPatch  true  "Fields to change"
// @Success      200      {object}  dto.SettingsResponse
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Router       /widgets/{id}/settings [patch]
func (h *Handler) UpdateSettings(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}

	var req dto.SettingsPatch
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	s, err := o.UpdateSettings(c.Request().Context(), toSettingsPatch(&req))
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			return shared.BadRequest("invalid_settings", err.Error())
		}
		return shared.InternalError("update_failed", "failed to update settings")
	}
	return c.JSON(http.StatusOK, toSettingsResponse(s))
}

// GetContext godoc
// @Summary      Get context data
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      200  {object}  dto.ContextResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/context [get]
func (h *Handler) GetContext(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	data := o.Context()
	if data == nil {
		data = map[string]any{}
	}
	return c.JSON(http.StatusOK, dto.ContextResponse{Data: data})
}

// SetContext godoc
// @Summary      Replace context data
// @Description  The data is sent to the model with every request
// @Tags         widgets
// @Accept       json
// @Param        id       path  string              true  "Widget ID"
// @Param        request  body  dto.ContextRequest  true  "Context data"
// @Success      204  "No Content"
// @Failure      400  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/context [put]
func (h *Handler) SetContext(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}

	var req dto.ContextRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	o.SetContext(req.Data)
	return c.NoContent(http.StatusNoContent)
}

// GetQueue godoc
// @Summary      Inspect the pending queue
// @Description  Comments waiting to be displayed and the number of outstanding model calls
// @Tags         widgets
// @Produce      json
// @Param        id   path      string  true  "Widget ID"
// @Success      200  {object}  dto.QueueResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/queue [get]
func (h *Handler) GetQueue(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	queued := o.Queued()
	comments := make([]dto.QueuedCommentResponse, len(queued))
	for i, q := range queued {
		comments[i] = dto.QueuedCommentResponse{Text: q.Text, Attachment: q.Attachment}
	}
	return c.JSON(http.StatusOK, dto.QueueResponse{Comments: comments, InFlight: o.InFlight()})
}

// ResetSeen godoc
// @Summary      Forget shown comments
// @Description  Clears the duplicate filter so earlier comments may be shown again
// @Tags         widgets
// @Param        id   path  string  true  "Widget ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/seen [delete]
func (h *Handler) ResetSeen(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}
	o.ResetSeen()
	return c.NoContent(http.StatusNoContent)
}

// ScreenshareOffer godoc
// @Summary      Answer a screen share offer
// @Description  Grants the widget's pending capture request with the viewer's WebRTC offer
// @Tags         screenshare
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Widget ID"
// @Param        request  body      dto.ScreenshareOfferRequest  true  "SDP offer"
// @Success      200      {object}  dto.ScreenshareAnswerResponse
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Failure      409      {object}  shared.APIError  "No pending request"
// @Router       /widgets/{id}/screenshare/offer [post]
func (h *Handler) ScreenshareOffer(c echo.Context) error {
	if _, err := h.widget(c); err != nil {
		return err
	}
	if h.screenshare == nil {
		return shared.ServiceUnavailable("screenshare_disabled", "screen share is not available")
	}

	var req dto.ScreenshareOfferRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.SDP == "" {
		return shared.BadRequest("missing_sdp", "sdp is required")
	}

	answer, err := h.screenshare.Offer(c.Request().Context(), c.Param("id"), req.SDP)
	if err != nil {
		return h.screenshareError(err)
	}
	return c.JSON(http.StatusOK, dto.ScreenshareAnswerResponse{SDP: answer})
}

// ScreenshareDeny godoc
// @Summary      Deny a screen share request
// @Tags         screenshare
// @Param        id   path  string  true  "Widget ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Failure      409  {object}  shared.APIError  "No pending request"
// @Router       /widgets/{id}/screenshare/deny [post]
func (h *Handler) ScreenshareDeny(c echo.Context) error {
	if _, err := h.widget(c); err != nil {
		return err
	}
	if h.screenshare == nil {
		return shared.ServiceUnavailable("screenshare_disabled", "screen share is not available")
	}
	if err := h.screenshare.Deny(c.Param("id")); err != nil {
		return h.screenshareError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) screenshareError(err error) error {
	switch {
	case errors.Is(err, screenshare.ErrNoPendingRequest):
		return shared.Conflict("no_pending_request", "no pending screen share request")
	case errors.Is(err, screenshare.ErrSDPTooLarge):
		return shared.BadRequest("sdp_too_large", err.Error())
	case errors.Is(err, screenshare.ErrClosed):
		return shared.ServiceUnavailable("screenshare_closed", err.Error())
	case errors.Is(err, screenshare.ErrUnsupportedCodec):
		return shared.BadRequest("invalid_offer", "share the screen with a VP8 video track")
	default:
		h.logger.Warn("screen share negotiation failed", "error", err)
		return shared.BadRequest("invalid_offer", "failed to negotiate screen share")
	}
}
