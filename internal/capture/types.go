package capture

import (
	"context"

	"github.com/pion/rtp"
)

type Mode string

const (
	ModeScreenCapture Mode = "screen-capture"
	ModeExternal      Mode = "external"
)

func (m Mode) Valid() bool {
	return m == ModeScreenCapture || m == ModeExternal
}

// Source produces frames for a widget. CaptureFrame returns "" when no frame
// is available yet; that is not an error.
type Source interface {
	Start(ctx context.Context) error
	Stop()
	CaptureFrame(ctx context.Context) (string, error)
	IsCapturing() bool
	LastError() string
	Mode() Mode
}

// FrameFunc supplies a frame in external mode, either as a data URI or bare base64.
type FrameFunc func(ctx context.Context) (string, error)

// Stream is a granted screen-share video track. ReadRTP returns io.EOF once
// the viewer stops sharing.
type Stream interface {
	MimeType() string
	ReadRTP() (*rtp.Packet, error)
	Close() error
}

// DisplayMedia asks the viewer for a screen, window or tab to share.
type DisplayMedia interface {
	Request(ctx context.Context) (Stream, error)
}
