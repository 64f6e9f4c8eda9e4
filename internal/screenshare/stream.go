package screenshare

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// trackStream exposes a remote video track as a capture.Stream and keeps
// asking the sender for keyframes so the surface can refresh.
type trackStream struct {
	pc     *webrtc.PeerConnection
	track  *webrtc.TrackRemote
	logger *slog.Logger

	done chan struct{}
	once sync.Once
}

func newTrackStream(pc *webrtc.PeerConnection, track *webrtc.TrackRemote, keyframeInterval time.Duration, logger *slog.Logger) *trackStream {
	s := &trackStream{
		pc:     pc,
		track:  track,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.requestKeyframes(keyframeInterval)
	return s
}

func (s *trackStream) MimeType() string {
	return s.track.Codec().MimeType
}

func (s *trackStream) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := s.track.ReadRTP()
	return pkt, err
}

func (s *trackStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pc.Close()
	})
	return err
}

func (s *trackStream) requestKeyframes(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pli := []rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(s.track.SSRC())}}
		if err := s.pc.WriteRTCP(pli); err != nil {
			s.logger.Debug("keyframe request failed", "error", err)
			return
		}

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}
