package capture

import (
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
)

const MimeTypeVP8 = "video/VP8"

// readyFrames is how many frames must be decoded before the surface is
// considered to show real content.
const readyFrames = 2

// Surface is the hidden render target a live stream is bound to. It
// depacketizes RTP, decodes frames and keeps the most recent one.
type Surface struct {
	logger  *slog.Logger
	decoder VideoDecoder

	mu            sync.Mutex
	sampleBuilder *samplebuilder.SampleBuilder
	mimeType      string
	latest        image.Image
	decoded       int
	stopped       bool
}

func NewSurface(decoder VideoDecoder, logger *slog.Logger) *Surface {
	if decoder == nil {
		decoder = NewVP8Decoder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		decoder: decoder,
		logger:  logger.With("component", "capture-surface"),
	}
}

func (s *Surface) WritePacket(pkt *rtp.Packet, mimeType string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}

	if s.sampleBuilder == nil || s.mimeType != mimeType {
		s.mimeType = mimeType
		s.sampleBuilder = s.createSampleBuilder(mimeType)
	}
	if s.sampleBuilder == nil {
		s.mu.Unlock()
		return
	}

	s.sampleBuilder.Push(pkt)
	var samples [][]byte
	for {
		sample := s.sampleBuilder.Pop()
		if sample == nil {
			break
		}
		samples = append(samples, sample.Data)
	}
	s.mu.Unlock()

	for _, data := range samples {
		s.handleSample(data, mimeType)
	}
}

func (s *Surface) createSampleBuilder(mimeType string) *samplebuilder.SampleBuilder {
	switch mimeType {
	case MimeTypeVP8:
		return samplebuilder.New(64, &codecs.VP8Packet{}, 90000)
	default:
		s.logger.Warn("unsupported video codec", "mime_type", mimeType)
		return nil
	}
}

func (s *Surface) handleSample(data []byte, mimeType string) {
	img, err := s.decoder.Decode(data, mimeType)
	if err != nil {
		if !errors.Is(err, ErrNotKeyframe) {
			s.logger.Debug("frame decode failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.latest = img
	s.decoded++
}

// Snapshot returns the current frame once the surface is ready.
func (s *Surface) Snapshot() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.decoded < readyFrames || s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

func (s *Surface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.latest = nil
	if s.decoder != nil {
		s.decoder.Close()
	}
}
