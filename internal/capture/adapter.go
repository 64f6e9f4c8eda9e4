package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/eleven-am/live-commentary/internal/telemetry"
)

type Config struct {
	Mode    Mode
	Display DisplayMedia
	Frame   FrameFunc
	// NewDecoder builds the decoder for each live session. Defaults to VP8.
	NewDecoder func() VideoDecoder
	// OnEnded fires when the viewer stops sharing from their side.
	OnEnded func()
	Logger  *slog.Logger
}

// Adapter is the Source for one widget. It holds at most one capture session.
type Adapter struct {
	mode       Mode
	display    DisplayMedia
	frame      FrameFunc
	newDecoder func() VideoDecoder
	onEnded    func()
	logger     *slog.Logger

	mu        sync.Mutex
	capturing bool
	lastError string
	stream    Stream
	surface   *Surface
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeScreenCapture
	}
	if cfg.NewDecoder == nil {
		cfg.NewDecoder = func() VideoDecoder { return NewVP8Decoder() }
	}
	return &Adapter{
		mode:       cfg.Mode,
		display:    cfg.Display,
		frame:      cfg.Frame,
		newDecoder: cfg.NewDecoder,
		onEnded:    cfg.OnEnded,
		logger:     cfg.Logger.With("component", "capture-adapter", "mode", string(cfg.Mode)),
	}
}

func (a *Adapter) Mode() Mode {
	return a.mode
}

func (a *Adapter) IsCapturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capturing
}

func (a *Adapter) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

func (a *Adapter) fail(msg string) {
	a.mu.Lock()
	a.capturing = false
	a.lastError = msg
	a.mu.Unlock()
}

func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.capturing {
		a.mu.Unlock()
		return nil
	}
	a.lastError = ""
	a.mu.Unlock()

	if a.mode == ModeExternal {
		if a.frame == nil {
			a.fail(MisconfiguredSourceMessage)
			return ErrMisconfiguredSource
		}
		a.mu.Lock()
		a.capturing = true
		a.mu.Unlock()
		telemetry.CaptureActive(true)
		return nil
	}

	if a.display == nil {
		a.fail(PermissionDeniedMessage)
		return ErrPermissionDenied
	}

	stream, err := a.display.Request(ctx)
	if err != nil {
		a.logger.Warn("screen capture request failed", "error", err)
		a.fail(PermissionDeniedMessage)
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	a.mu.Lock()
	if a.capturing {
		a.mu.Unlock()
		stream.Close()
		return nil
	}
	surface := NewSurface(a.newDecoder(), a.logger)
	a.stream = stream
	a.surface = surface
	a.capturing = true
	a.mu.Unlock()

	telemetry.CaptureActive(true)
	a.logger.Info("screen capture started", "mime_type", stream.MimeType())

	go a.pump(stream, surface)
	return nil
}

func (a *Adapter) pump(stream Stream, surface *Surface) {
	mimeType := stream.MimeType()
	for {
		pkt, err := stream.ReadRTP()
		if err != nil {
			break
		}
		surface.WritePacket(pkt, mimeType)
	}
	a.ended(stream)
}

// ended handles the viewer stopping the share. It is expected, so no error is recorded.
func (a *Adapter) ended(stream Stream) {
	a.mu.Lock()
	if a.stream != stream {
		a.mu.Unlock()
		return
	}
	a.release()
	a.mu.Unlock()

	stream.Close()
	telemetry.CaptureActive(false)
	a.logger.Info("screen capture ended by viewer")

	if a.onEnded != nil {
		a.onEnded()
	}
}

// release must be called with a.mu held.
func (a *Adapter) release() {
	a.capturing = false
	a.stream = nil
	if a.surface != nil {
		a.surface.Stop()
		a.surface = nil
	}
}

func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.capturing {
		a.mu.Unlock()
		return
	}
	stream := a.stream
	a.release()
	a.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	telemetry.CaptureActive(false)
}

func (a *Adapter) CaptureFrame(ctx context.Context) (string, error) {
	if a.mode == ModeExternal {
		return a.captureExternal(ctx), nil
	}

	a.mu.Lock()
	surface := a.surface
	a.mu.Unlock()
	if surface == nil {
		return "", nil
	}

	img, ok := surface.Snapshot()
	if !ok {
		return "", nil
	}
	return EncodeJPEG(img)
}

func (a *Adapter) captureExternal(ctx context.Context) (out string) {
	if a.frame == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("external capture panicked", "panic", r)
			out = ""
		}
	}()

	data, err := a.frame(ctx)
	if err != nil {
		a.logger.Error("external capture error", "error", err)
		return ""
	}
	if i := strings.Index(data, ","); i >= 0 {
		data = data[i+1:]
	}
	return data
}
