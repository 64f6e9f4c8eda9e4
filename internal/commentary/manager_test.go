package commentary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/live-commentary/internal/capture"
	"github.com/eleven-am/live-commentary/internal/settings"
)

type deniedDisplay struct {
	notify func()
}

func (d *deniedDisplay) Request(ctx context.Context) (capture.Stream, error) {
	d.notify()
	return nil, errors.New("viewer closed the picker")
}

type fakeDisplayProvider struct {
	widgets []string
}

func (p *fakeDisplayProvider) Display(widgetID string, notify func()) capture.DisplayMedia {
	p.widgets = append(p.widgets, widgetID)
	return &deniedDisplay{notify: notify}
}

func newTestManager(t *testing.T, display DisplayProvider) (*Manager, *fakeProvider) {
	t.Helper()
	prov := &fakeProvider{}
	m := NewManager(ManagerConfig{
		Provider:        prov,
		Store:           settings.NewMemoryStore(),
		Display:         display,
		DisplayInterval: func() time.Duration { return time.Hour },
		Logger:          discardLogger(),
	})
	t.Cleanup(func() { m.Close() })
	return m, prov
}

func TestManager_CreateGetRemove(t *testing.T) {
	m, _ := newTestManager(t, nil)

	o, err := m.Create(context.Background(), WidgetOptions{Origin: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(o.ID(), "wgt_") {
		t.Errorf("expected wgt_ prefix, got %s", o.ID())
	}
	if o.Mode() != capture.ModeScreenCapture {
		t.Errorf("expected default screen mode, got %s", o.Mode())
	}

	got, ok := m.Get(o.ID())
	if !ok || got != o {
		t.Fatal("expected widget to be registered")
	}
	if m.Count() != 1 || len(m.List()) != 1 {
		t.Errorf("expected one widget")
	}

	if !m.Remove(o.ID()) {
		t.Error("expected remove to succeed")
	}
	if m.Remove(o.ID()) {
		t.Error("expected second remove to fail")
	}
	if _, ok := m.Get(o.ID()); ok {
		t.Error("expected widget gone")
	}
}

func TestManager_CreateValidation(t *testing.T) {
	m, _ := newTestManager(t, nil)

	if _, err := m.Create(context.Background(), WidgetOptions{Mode: "webcam"}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
	if _, err := m.Create(context.Background(), WidgetOptions{Transform: "yaml"}); !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("expected ErrUnknownTransform, got %v", err)
	}
	bad := 0.5
	if _, err := m.Create(context.Background(), WidgetOptions{Overrides: &settings.Patch{CaptureInterval: &bad}}); !errors.Is(err, settings.ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("expected no widgets created, got %d", m.Count())
	}
}

func TestManager_ExternalFrame(t *testing.T) {
	m, prov := newTestManager(t, nil)

	o, err := m.Create(context.Background(), WidgetOptions{
		Mode: capture.ModeExternal,
		Frame: func(context.Context) (string, error) {
			return "data:image/jpeg;base64,QUJD", nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-o.ToggleCapture()
	waitFor(t, "provider call", func() bool { return prov.callCount() >= 1 })

	if img := prov.requests()[0].Image; img != "QUJD" {
		t.Errorf("expected data uri prefix stripped, got %q", img)
	}
}

func TestManager_ExternalWithoutSource(t *testing.T) {
	m, _ := newTestManager(t, nil)

	o, err := m.Create(context.Background(), WidgetOptions{Mode: capture.ModeExternal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-o.ToggleCapture()

	if msg := lastMessage(o); msg.Text != capture.MisconfiguredSourceMessage || msg.Color != ColorError {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestManager_ScreenshareRequestAndDenial(t *testing.T) {
	display := &fakeDisplayProvider{}
	m, _ := newTestManager(t, display)

	o, err := m.Create(context.Background(), WidgetOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(display.widgets) != 1 || display.widgets[0] != o.ID() {
		t.Fatalf("expected display bound to widget, got %v", display.widgets)
	}

	events, unsubscribe := o.Subscribe()
	defer unsubscribe()

	<-o.ToggleCapture()

	var requested bool
	for !requested {
		select {
		case ev := <-events:
			requested = ev.Type == EventScreenshareRequest
		case <-time.After(time.Second):
			t.Fatal("expected screenshare request event")
		}
	}

	if o.State().Capturing {
		t.Error("expected capture inactive")
	}
	if n := countColor(o.Messages(), ColorError); n != 1 {
		t.Errorf("expected one error message, got %d", n)
	}
	if o.State().LastError != capture.PermissionDeniedMessage {
		t.Errorf("unexpected last error %q", o.State().LastError)
	}
}

func TestManager_Close(t *testing.T) {
	m, _ := newTestManager(t, nil)
	for range 3 {
		if _, err := m.Create(context.Background(), WidgetOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("expected no widgets, got %d", m.Count())
	}
}
