package screenshare

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

func newTestBroker(t *testing.T, cfg Config) *Broker {
	t.Helper()
	b, err := NewBroker(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewBroker failed: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func waitPending(t *testing.T, b *Broker, widgetID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !b.Pending(widgetID) {
		if time.Now().After(deadline) {
			t.Fatal("request never became pending")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func createOffer(t *testing.T) (*webrtc.PeerConnection, string) {
	t.Helper()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection failed: %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "screen")
	if err != nil {
		t.Fatalf("NewTrackLocalStaticSample failed: %v", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		t.Fatalf("SetLocalDescription failed: %v", err)
	}
	<-gathered
	return pc, pc.LocalDescription().SDP
}

func createH264Offer(t *testing.T) string {
	t.Helper()
	me := &webrtc.MediaEngine{}
	if err := me.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeH264,
			ClockRate:   90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
		},
		PayloadType: 102,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		t.Fatalf("RegisterCodec failed: %v", err)
	}

	pc, err := webrtc.NewAPI(webrtc.WithMediaEngine(me)).NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection failed: %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264}, "video", "screen")
	if err != nil {
		t.Fatalf("NewTrackLocalStaticSample failed: %v", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		t.Fatalf("SetLocalDescription failed: %v", err)
	}
	return offer.SDP
}

func TestNewBroker_Defaults(t *testing.T) {
	b := newTestBroker(t, Config{})
	if b.cfg.GrantTimeout != 60*time.Second {
		t.Errorf("expected default grant timeout 60s, got %v", b.cfg.GrantTimeout)
	}
	if b.cfg.KeyframeInterval != 2*time.Second {
		t.Errorf("expected default keyframe interval 2s, got %v", b.cfg.KeyframeInterval)
	}
}

func TestNewBroker_WithPortRange(t *testing.T) {
	b := newTestBroker(t, Config{PortRange: PortRange{Min: 10000, Max: 20000}})
	if b.cfg.PortRange.Min != 10000 {
		t.Errorf("expected port min 10000, got %d", b.cfg.PortRange.Min)
	}
}

func TestBroker_ICEServers(t *testing.T) {
	b := newTestBroker(t, Config{ICEServers: []ICEServerConfig{
		{URLs: []string{"stun:stun.example.com"}},
		{URLs: []string{"turn:turn.example.com"}, Username: "u", Credential: "p"},
	}})
	servers := b.iceServers()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[1].Username != "u" || servers[1].CredentialType != webrtc.ICECredentialTypePassword {
		t.Errorf("turn credentials not applied: %+v", servers[1])
	}
}

func TestBroker_Deny(t *testing.T) {
	b := newTestBroker(t, Config{})

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Request(context.Background(), "wgt_1")
		errCh <- err
	}()
	waitPending(t, b, "wgt_1")

	if err := b.Deny("wgt_1"); err != nil {
		t.Fatalf("Deny failed: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrDenied) {
			t.Errorf("expected ErrDenied, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Request did not return after Deny")
	}

	if b.Pending("wgt_1") {
		t.Error("request should no longer be pending")
	}
}

func TestBroker_DenyWithoutRequest(t *testing.T) {
	b := newTestBroker(t, Config{})
	if err := b.Deny("missing"); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("expected ErrNoPendingRequest, got %v", err)
	}
}

func TestBroker_RequestTimeout(t *testing.T) {
	b := newTestBroker(t, Config{GrantTimeout: 20 * time.Millisecond})
	_, err := b.Request(context.Background(), "wgt_1")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if b.Pending("wgt_1") {
		t.Error("timed out request should be removed")
	}
}

func TestBroker_RequestContextCancelled(t *testing.T) {
	b := newTestBroker(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Request(ctx, "wgt_1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBroker_NewRequestReplacesOld(t *testing.T) {
	b := newTestBroker(t, Config{})

	first := make(chan error, 1)
	go func() {
		_, err := b.Request(context.Background(), "wgt_1")
		first <- err
	}()
	waitPending(t, b, "wgt_1")

	go b.Request(context.Background(), "wgt_1")

	select {
	case err := <-first:
		if !errors.Is(err, ErrDenied) {
			t.Errorf("expected superseded request to be denied, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not return")
	}
}

func TestBroker_Close(t *testing.T) {
	b := newTestBroker(t, Config{})
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Request(context.Background(), "wgt_1")
		errCh <- err
	}()
	waitPending(t, b, "wgt_1")

	b.Close()
	if err := <-errCh; !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestBroker_OfferWithoutRequest(t *testing.T) {
	b := newTestBroker(t, Config{})
	_, err := b.Offer(context.Background(), "wgt_1", "v=0")
	if !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("expected ErrNoPendingRequest, got %v", err)
	}
}

func TestBroker_OfferTooLarge(t *testing.T) {
	b := newTestBroker(t, Config{MaxSDPSize: 10})
	_, err := b.Offer(context.Background(), "wgt_1", strings.Repeat("a", 11))
	if !errors.Is(err, ErrSDPTooLarge) {
		t.Errorf("expected ErrSDPTooLarge, got %v", err)
	}
}

func TestBroker_OfferInvalidSDP(t *testing.T) {
	b := newTestBroker(t, Config{GrantTimeout: time.Second})
	go b.Request(context.Background(), "wgt_1")
	waitPending(t, b, "wgt_1")

	if _, err := b.Offer(context.Background(), "wgt_1", "garbage"); err == nil {
		t.Error("expected error for invalid SDP")
	}
	if !b.Pending("wgt_1") {
		t.Error("a bad offer should leave the request pending for a retry")
	}
}

func TestBroker_OfferAnswer(t *testing.T) {
	b := newTestBroker(t, Config{GrantTimeout: 5 * time.Second})
	go b.Request(context.Background(), "wgt_1")
	waitPending(t, b, "wgt_1")

	_, offer := createOffer(t)
	answer, err := b.Offer(context.Background(), "wgt_1", offer)
	if err != nil {
		t.Fatalf("Offer failed: %v", err)
	}
	if !strings.Contains(answer, "m=video") {
		t.Errorf("answer should negotiate video:\n%s", answer)
	}
	if !strings.Contains(answer, "a=recvonly") {
		t.Errorf("answer should be receive-only:\n%s", answer)
	}
}

func TestBroker_OfferRejectsNonVP8(t *testing.T) {
	b := newTestBroker(t, Config{GrantTimeout: 5 * time.Second})
	go b.Request(context.Background(), "wgt_1")
	waitPending(t, b, "wgt_1")

	offer := createH264Offer(t)
	if !strings.Contains(offer, "H264/90000") {
		t.Fatalf("offer should carry H264:\n%s", offer)
	}

	_, err := b.Offer(context.Background(), "wgt_1", offer)
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("expected ErrUnsupportedCodec, got %v", err)
	}
	if !b.Pending("wgt_1") {
		t.Error("a rejected offer should leave the request pending for a retry")
	}
}

func TestBroker_OfferAnswerOnlyVP8(t *testing.T) {
	b := newTestBroker(t, Config{GrantTimeout: 5 * time.Second})
	go b.Request(context.Background(), "wgt_1")
	waitPending(t, b, "wgt_1")

	_, offer := createOffer(t)
	answer, err := b.Offer(context.Background(), "wgt_1", offer)
	if err != nil {
		t.Fatalf("Offer failed: %v", err)
	}
	if !strings.Contains(answer, "VP8/90000") {
		t.Errorf("answer should select VP8:\n%s", answer)
	}
	for _, codec := range []string{"H264/", "VP9/", "AV1/"} {
		if strings.Contains(answer, codec) {
			t.Errorf("answer should not offer %s:\n%s", codec, answer)
		}
	}
}

func TestCheckVP8Offer(t *testing.T) {
	tests := []struct {
		name string
		sdp  string
		want error
	}{
		{"vp8", "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\nm=video 9 UDP/TLS/RTP/SAVPF 96\r\na=rtpmap:96 VP8/90000\r\n", nil},
		{"audio only", "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111\r\na=rtpmap:111 opus/48000/2\r\n", ErrUnsupportedCodec},
		{"rejected video", "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\nm=video 0 UDP/TLS/RTP/SAVPF 96\r\na=rtpmap:96 VP8/90000\r\n", ErrUnsupportedCodec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkVP8Offer(tt.sdp); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBroker_DisplayNotifies(t *testing.T) {
	b := newTestBroker(t, Config{})
	notified := make(chan struct{}, 1)
	display := b.Display("wgt_1", func() {
		if !b.Pending("wgt_1") {
			t.Error("request must be pending when notify runs")
		}
		notified <- struct{}{}
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := display.Request(context.Background())
		errCh <- err
	}()

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("notify was not called")
	}
	b.Deny("wgt_1")
	if err := <-errCh; !errors.Is(err, ErrDenied) {
		t.Errorf("expected ErrDenied, got %v", err)
	}
}
