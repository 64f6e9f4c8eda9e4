package screenshare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/live-commentary/internal/capture"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

var (
	ErrNoPendingRequest = errors.New("no pending screen share request")
	ErrDenied           = errors.New("screen share denied")
	ErrTimeout          = errors.New("screen share request timed out")
	ErrSDPTooLarge      = errors.New("sdp exceeds maximum size")
	ErrClosed           = errors.New("screen share broker closed")
	ErrUnsupportedCodec = errors.New("screen share offer has no VP8 video")
)

// vp8PayloadType is the dynamic payload type used for the only codec the
// capture surface can decode.
const vp8PayloadType = 96

type grant struct {
	stream capture.Stream
	err    error
}

type pendingRequest struct {
	result chan grant
}

// resolve delivers at most one outcome to the waiting Request.
func (p *pendingRequest) resolve(g grant) bool {
	select {
	case p.result <- g:
		return true
	default:
		return false
	}
}

// Broker pairs a widget's capture request with the viewer's WebRTC offer.
// A request stays pending until the host page posts an offer, denies it, or
// the grant timeout passes.
type Broker struct {
	cfg    Config
	api    *webrtc.API
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func NewBroker(cfg Config, logger *slog.Logger) (*Broker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	me := &webrtc.MediaEngine{}
	if err := me.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:     webrtc.MimeTypeVP8,
			ClockRate:    90000,
			RTCPFeedback: []webrtc.RTCPFeedback{{Type: "nack", Parameter: "pli"}},
		},
		PayloadType: vp8PayloadType,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, err
	}

	se := &webrtc.SettingEngine{}
	if cfg.PortRange.Min > 0 && cfg.PortRange.Max > cfg.PortRange.Min {
		if err := se.SetEphemeralUDPPortRange(uint16(cfg.PortRange.Min), uint16(cfg.PortRange.Max)); err != nil {
			return nil, err
		}
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithSettingEngine(*se),
	)

	return &Broker{
		cfg:     cfg,
		api:     api,
		logger:  logger.With("component", "screenshare-broker"),
		pending: make(map[string]*pendingRequest),
	}, nil
}

func (b *Broker) iceServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(b.cfg.ICEServers))
	for _, s := range b.cfg.ICEServers {
		server := webrtc.ICEServer{
			URLs: s.URLs,
		}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}
	return servers
}

// Request blocks until the viewer grants a stream for widgetID.
func (b *Broker) Request(ctx context.Context, widgetID string) (capture.Stream, error) {
	return b.request(ctx, widgetID, nil)
}

// request registers the pending entry before calling onPending, so an offer
// posted in reaction to the notification always finds it.
func (b *Broker) request(ctx context.Context, widgetID string, onPending func()) (capture.Stream, error) {
	pr := &pendingRequest{result: make(chan grant, 1)}

	b.mu.Lock()
	if prev, ok := b.pending[widgetID]; ok {
		prev.resolve(grant{err: ErrDenied})
	}
	b.pending[widgetID] = pr
	b.mu.Unlock()

	if onPending != nil {
		onPending()
	}

	timer := time.NewTimer(b.cfg.GrantTimeout)
	defer timer.Stop()

	select {
	case g := <-pr.result:
		return g.stream, g.err
	case <-ctx.Done():
		b.abandon(widgetID, pr)
		return nil, ctx.Err()
	case <-timer.C:
		b.abandon(widgetID, pr)
		return nil, ErrTimeout
	}
}

// abandon drops pr and closes any stream that raced in after the waiter left.
func (b *Broker) abandon(widgetID string, pr *pendingRequest) {
	var late grant
	b.mu.Lock()
	if b.pending[widgetID] == pr {
		delete(b.pending, widgetID)
	}
	select {
	case late = <-pr.result:
	default:
	}
	b.mu.Unlock()

	if late.stream != nil {
		late.stream.Close()
	}
}

func (b *Broker) Pending(widgetID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[widgetID]
	return ok
}

func (b *Broker) Deny(widgetID string) error {
	b.mu.Lock()
	pr, ok := b.pending[widgetID]
	if ok {
		delete(b.pending, widgetID)
	}
	b.mu.Unlock()

	if !ok {
		return ErrNoPendingRequest
	}
	pr.resolve(grant{err: ErrDenied})
	return nil
}

// Offer answers the viewer's SDP offer for a pending request. The request is
// granted once the first video track arrives.
func (b *Broker) Offer(ctx context.Context, widgetID, sdp string) (string, error) {
	if len(sdp) > b.cfg.MaxSDPSize {
		return "", ErrSDPTooLarge
	}

	b.mu.Lock()
	pr, ok := b.pending[widgetID]
	b.mu.Unlock()
	if !ok {
		return "", ErrNoPendingRequest
	}

	if err := checkVP8Offer(sdp); err != nil {
		return "", err
	}

	pc, err := b.api.NewPeerConnection(webrtc.Configuration{ICEServers: b.iceServers()})
	if err != nil {
		return "", fmt.Errorf("create peer connection: %w", err)
	}

	logger := b.logger.With("widget_id", widgetID)

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeVideo {
			return
		}
		logger.Info("screen share track received", "codec", track.Codec().MimeType)
		stream := newTrackStream(pc, track, b.cfg.KeyframeInterval, logger)
		b.deliver(widgetID, pr, grant{stream: stream})
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		pc.Close()
		return "", fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", fmt.Errorf("create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return "", fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		pc.Close()
		return "", ctx.Err()
	}

	// Registered only once negotiation succeeded; a rejected offer leaves the
	// request pending so the viewer can retry.
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			if b.deliver(widgetID, pr, grant{err: ErrDenied}) {
				logger.Warn("screen share connection lost before a track arrived", "state", state.String())
			}
			pc.Close()
		}
	})

	return pc.LocalDescription().SDP, nil
}

// checkVP8Offer rejects offers without an active video section carrying VP8.
// Any other codec would negotiate but never produce a decodable frame.
func checkVP8Offer(raw string) error {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return fmt.Errorf("parse offer: %w", err)
	}
	for _, md := range desc.MediaDescriptions {
		if md.MediaName.Media != "video" || md.MediaName.Port.Value == 0 {
			continue
		}
		for _, attr := range md.Attributes {
			if attr.Key != "rtpmap" {
				continue
			}
			if _, codec, ok := strings.Cut(attr.Value, " "); ok && strings.HasPrefix(strings.ToUpper(codec), "VP8/") {
				return nil
			}
		}
	}
	return ErrUnsupportedCodec
}

// deliver resolves pr if it is still the pending request for widgetID.
func (b *Broker) deliver(widgetID string, pr *pendingRequest, g grant) bool {
	b.mu.Lock()
	ok := b.pending[widgetID] == pr
	if ok {
		delete(b.pending, widgetID)
		ok = pr.resolve(g)
	}
	b.mu.Unlock()

	if !ok && g.stream != nil {
		g.stream.Close()
	}
	return ok
}

// Close denies every pending request.
func (b *Broker) Close() {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[string]*pendingRequest)
	b.mu.Unlock()

	for _, pr := range pending {
		pr.resolve(grant{err: ErrClosed})
	}
}

// Display adapts the broker into the DisplayMedia of one widget. notify is
// called whenever the widget starts waiting for a viewer's grant.
func (b *Broker) Display(widgetID string, notify func()) capture.DisplayMedia {
	return &widgetDisplay{broker: b, widgetID: widgetID, notify: notify}
}

type widgetDisplay struct {
	broker   *Broker
	widgetID string
	notify   func()
}

func (d *widgetDisplay) Request(ctx context.Context) (capture.Stream, error) {
	return d.broker.request(ctx, d.widgetID, d.notify)
}
