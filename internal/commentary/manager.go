package commentary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/live-commentary/internal/capture"
	"github.com/eleven-am/live-commentary/internal/settings"
	"github.com/eleven-am/live-commentary/internal/shared"
	"github.com/eleven-am/live-commentary/internal/telemetry"
	"github.com/eleven-am/live-commentary/internal/vision"
)

var ErrInvalidMode = errors.New("invalid capture mode")

// DisplayProvider hands out the screen picker for a widget. notify fires when
// the widget starts waiting for the viewer.
type DisplayProvider interface {
	Display(widgetID string, notify func()) capture.DisplayMedia
}

type ManagerConfig struct {
	Provider    vision.Provider
	Store       settings.Store
	Display     DisplayProvider
	FrameClient *http.Client
	// DisplayInterval overrides the dequeue cadence for every widget.
	DisplayInterval func() time.Duration
	Logger          *slog.Logger
}

type WidgetOptions struct {
	Mode      capture.Mode
	Origin    string
	Overrides *settings.Patch
	Prompts   vision.Prompts
	Context   map[string]any
	Usernames []string
	Transform string
	// ExternalSourceURL is polled for frames in external mode.
	ExternalSourceURL string
	// Frame takes precedence over ExternalSourceURL.
	Frame capture.FrameFunc
}

type Manager struct {
	provider        vision.Provider
	store           settings.Store
	display         DisplayProvider
	frameClient     *http.Client
	displayInterval func() time.Duration
	widgets         map[string]*Orchestrator
	mu              sync.RWMutex
	log             *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FrameClient == nil {
		cfg.FrameClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Manager{
		provider:        cfg.Provider,
		store:           cfg.Store,
		display:         cfg.Display,
		frameClient:     cfg.FrameClient,
		displayInterval: cfg.DisplayInterval,
		widgets:         make(map[string]*Orchestrator),
		log:             cfg.Logger.With("component", "widget_manager"),
	}
}

func (m *Manager) Create(ctx context.Context, opts WidgetOptions) (*Orchestrator, error) {
	if opts.Mode == "" {
		opts.Mode = capture.ModeScreenCapture
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, opts.Mode)
	}
	transform, err := LookupTransform(opts.Transform)
	if err != nil {
		return nil, err
	}
	if err := settings.Merge(settings.Defaults(), opts.Overrides).Validate(); err != nil {
		return nil, err
	}

	id := shared.NewID("wgt_")

	var holder struct {
		sync.Mutex
		o *Orchestrator
	}
	current := func() *Orchestrator {
		holder.Lock()
		defer holder.Unlock()
		return holder.o
	}

	srcCfg := capture.Config{
		Mode: opts.Mode,
		OnEnded: func() {
			if o := current(); o != nil {
				o.SourceEnded()
			}
		},
		Logger: m.log,
	}
	switch opts.Mode {
	case capture.ModeExternal:
		srcCfg.Frame = opts.Frame
		if srcCfg.Frame == nil && opts.ExternalSourceURL != "" {
			srcCfg.Frame = capture.HTTPFrameFunc(opts.ExternalSourceURL, m.frameClient)
		}
	default:
		if m.display != nil {
			srcCfg.Display = m.display.Display(id, func() {
				if o := current(); o != nil {
					o.RequestScreenshare()
				}
			})
		}
	}

	o := New(ctx, Config{
		ID:              id,
		Origin:          opts.Origin,
		Source:          capture.NewAdapter(srcCfg),
		Provider:        m.provider,
		Store:           m.store,
		Overrides:       opts.Overrides,
		Prompts:         opts.Prompts,
		Context:         opts.Context,
		Usernames:       opts.Usernames,
		Transform:       transform,
		DisplayInterval: m.displayInterval,
		Logger:          m.log,
	})
	holder.Lock()
	holder.o = o
	holder.Unlock()

	m.mu.Lock()
	m.widgets[id] = o
	count := len(m.widgets)
	m.mu.Unlock()
	telemetry.SetActiveWidgets(count)

	m.log.Info("widget created", "widget_id", id, "mode", opts.Mode, "origin", opts.Origin)
	return o, nil
}

func (m *Manager) Get(id string) (*Orchestrator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.widgets[id]
	return o, ok
}

func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	o, ok := m.widgets[id]
	if ok {
		delete(m.widgets, id)
	}
	count := len(m.widgets)
	m.mu.Unlock()

	if !ok {
		return false
	}
	o.Close()
	telemetry.SetActiveWidgets(count)
	m.log.Info("widget removed", "widget_id", id)
	return true
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.widgets)
}

// List returns the state of every widget ordered by id.
func (m *Manager) List() []State {
	m.mu.RLock()
	widgets := make([]*Orchestrator, 0, len(m.widgets))
	for _, o := range m.widgets {
		widgets = append(widgets, o)
	}
	m.mu.RUnlock()

	states := make([]State, 0, len(widgets))
	for _, o := range widgets {
		states = append(states, o.State())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

func (m *Manager) Close() error {
	m.mu.Lock()
	widgets := make([]*Orchestrator, 0, len(m.widgets))
	for _, o := range m.widgets {
		widgets = append(widgets, o)
	}
	m.widgets = make(map[string]*Orchestrator)
	m.mu.Unlock()

	for _, o := range widgets {
		o.Close()
	}
	telemetry.SetActiveWidgets(0)
	return nil
}
