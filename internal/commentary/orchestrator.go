package commentary

import (
	"context"
	"log/slog"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/eleven-am/live-commentary/internal/capture"
	"github.com/eleven-am/live-commentary/internal/settings"
	"github.com/eleven-am/live-commentary/internal/telemetry"
	"github.com/eleven-am/live-commentary/internal/vision"
)

// queueHighWater is the pending queue size at which the trigger loop stops
// asking the provider for more comments.
const queueHighWater = 3

const (
	DefaultSettleDelay = 500 * time.Millisecond
	displayMin         = 2500 * time.Millisecond
	displayJitter      = 1000 * time.Millisecond
)

type LoadingStatus string

const (
	LoadingIdle    LoadingStatus = "idle"
	LoadingLoading LoadingStatus = "loading"
	LoadingReady   LoadingStatus = "ready"
	LoadingError   LoadingStatus = "error"
)

type LoadingState struct {
	Status   LoadingStatus `json:"status"`
	Message  string        `json:"message,omitempty"`
	Progress float64       `json:"progress,omitempty"`
}

type State struct {
	ID         string       `json:"id"`
	Mode       capture.Mode `json:"mode"`
	Origin     string       `json:"origin,omitempty"`
	Capturing  bool         `json:"capturing"`
	Starting   bool         `json:"starting"`
	Generating bool         `json:"generating"`
	Loading    LoadingState `json:"loading"`
	Queued     int          `json:"queued"`
	Seen       int          `json:"seen"`
	LastError  string       `json:"last_error,omitempty"`
}

type Config struct {
	ID        string
	Origin    string
	Source    capture.Source
	Provider  vision.Provider
	Store     settings.Store
	Overrides *settings.Patch
	Prompts   vision.Prompts
	Context   map[string]any
	Usernames []string
	Transform ResponseTransform
	// DisplayInterval returns the wait before the next dequeue. Defaults to a
	// random duration between 2.5s and 3.5s.
	DisplayInterval func() time.Duration
	SettleDelay     time.Duration
	Logger          *slog.Logger
}

// Orchestrator drives one widget: it owns the capture lifecycle, the two
// loops, the pending queue and the chat list. All mutable state sits behind mu.
type Orchestrator struct {
	id              string
	origin          string
	source          capture.Source
	provider        vision.Provider
	store           settings.Store
	prompts         vision.Prompts
	usernames       []string
	transform       ResponseTransform
	displayInterval func() time.Duration
	settleDelay     time.Duration
	logger          *slog.Logger
	events          *broadcaster

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu        sync.Mutex
	settings  settings.Settings
	appData   map[string]any
	messages  []ChatMessage
	queue     pendingQueue
	seen      *SeenCache
	inFlight  int
	loading   LoadingState
	capturing bool
	starting  bool
	epoch     uint64
	closed    bool

	// Set while a start waits on the source; a toggle cancels it.
	startCancel  context.CancelFunc
	startDone    chan struct{}
	startAborted bool

	loopMu          sync.Mutex
	loopCancel      context.CancelFunc
	loopWG          sync.WaitGroup
	intervalChanged chan struct{}
}

func randomDisplayInterval() time.Duration {
	return displayMin + time.Duration(rand.Int64N(int64(displayJitter)))
}

// New builds an orchestrator and resolves its settings. Store failures are
// logged and the widget runs on the merged defaults.
func New(ctx context.Context, cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DisplayInterval == nil {
		cfg.DisplayInterval = randomDisplayInterval
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	lifetime, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		id:              cfg.ID,
		origin:          cfg.Origin,
		source:          cfg.Source,
		provider:        cfg.Provider,
		store:           cfg.Store,
		prompts:         cfg.Prompts.WithDefaults(),
		usernames:       cfg.Usernames,
		transform:       cfg.Transform,
		displayInterval: cfg.DisplayInterval,
		settleDelay:     cfg.SettleDelay,
		logger:          cfg.Logger.With("component", "orchestrator", "widget_id", cfg.ID),
		events:          newBroadcaster(),
		ctx:             lifetime,
		cancel:          cancel,
		appData:         maps.Clone(cfg.Context),
		seen:            NewSeenCache(MaxMessages),
		loading:         LoadingState{Status: LoadingIdle},
		intervalChanged: make(chan struct{}, 1),
	}

	o.settings = o.loadSettings(ctx, cfg.Overrides)
	o.persist(ctx, o.settings)

	o.AddMessage("Welcome! Click Play to start.", SystemUsername, ColorWelcome, "")
	if o.source.Mode() == capture.ModeScreenCapture {
		o.AddMessage("Use the settings icon to configure.", SystemUsername, ColorHint, "")
	}
	return o
}

func (o *Orchestrator) loadSettings(ctx context.Context, overrides *settings.Patch) settings.Settings {
	var persisted *settings.Patch
	if o.store != nil {
		p, err := o.store.Load(ctx, o.origin)
		if err != nil {
			o.logger.Warn("failed to load persisted settings", "error", err)
		}
		persisted = p
	}

	s := settings.Resolve(overrides, persisted)
	if err := s.Validate(); err != nil {
		o.logger.Warn("persisted settings out of range, using caller overrides", "error", err)
		s = settings.Resolve(overrides, nil)
	}
	return s
}

func (o *Orchestrator) persist(ctx context.Context, s settings.Settings) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(ctx, o.origin, s); err != nil {
		o.logger.Warn("failed to persist settings", "error", err)
	}
}

func (o *Orchestrator) ID() string {
	return o.id
}

func (o *Orchestrator) Mode() capture.Mode {
	return o.source.Mode()
}

func (o *Orchestrator) Settings() settings.Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *Orchestrator) Messages() []ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ChatMessage(nil), o.messages...)
}

func (o *Orchestrator) Queued() []QueuedComment {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]QueuedComment(nil), o.queue.items...)
}

// InFlight reports how many provider calls are outstanding.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	return State{
		ID:         o.id,
		Mode:       o.source.Mode(),
		Origin:     o.origin,
		Capturing:  o.capturing,
		Starting:   o.starting,
		Generating: o.inFlight > 0,
		Loading:    o.loading,
		Queued:     o.queue.len(),
		Seen:       o.seen.Len(),
		LastError:  o.source.LastError(),
	}
}

func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.events.subscribe()
}

func (o *Orchestrator) publishState() {
	st := o.State()
	o.events.publish(Event{Type: EventState, WidgetID: o.id, State: &st})
}

// AddMessage appends a chat line. A blank username draws a fake viewer from
// the widget's pool; a named sender without a color is shown in white.
func (o *Orchestrator) AddMessage(text, username, color, attachment string) ChatMessage {
	msg := NewChatMessage(text, username, color, o.usernames, attachment)

	o.mu.Lock()
	o.messages = appendCapped(o.messages, msg)
	o.mu.Unlock()

	o.events.publish(Event{Type: EventMessage, WidgetID: o.id, Message: &msg})
	return msg
}

func (o *Orchestrator) mergeMessages(incoming []ChatMessage) {
	if len(incoming) == 0 {
		return
	}
	o.mu.Lock()
	o.messages = mergeByID(o.messages, incoming)
	list := append([]ChatMessage(nil), o.messages...)
	o.mu.Unlock()

	o.events.publish(Event{Type: EventMessages, WidgetID: o.id, Messages: list})
}

func (o *Orchestrator) systemMessage(text, color string) {
	o.AddMessage(text, SystemUsername, color, "")
}

// reportError shows a provider failure unless the provider is still
// initializing, where the progress display takes precedence.
func (o *Orchestrator) reportError(text string) {
	o.mu.Lock()
	loading := o.loading.Status == LoadingLoading
	o.mu.Unlock()

	if loading {
		o.logger.Debug("suppressed error while loading", "error", text)
		return
	}
	o.systemMessage(text, ColorError)
}

// ToggleCapture pauses an active session or starts a new one. Starting waits
// for the viewer's permission in the background; toggling again while it
// waits abandons the start. The returned channel closes once the toggle has
// fully taken effect.
func (o *Orchestrator) ToggleCapture() <-chan struct{} {
	done := make(chan struct{})

	o.mu.Lock()
	capturing, starting, closed := o.capturing, o.starting, o.closed
	var startDone <-chan struct{}
	if starting && !closed {
		o.startAborted = true
		o.startCancel()
		startDone = o.startDone
	}
	o.mu.Unlock()

	switch {
	case closed:
		close(done)
	case starting:
		cancelled := o.goTask(func() {
			defer close(done)
			<-startDone
			o.systemMessage("Commentary paused.", ColorPaused)
		})
		if !cancelled {
			close(done)
		}
	case capturing:
		o.stopCapture()
		o.systemMessage("Commentary paused.", ColorPaused)
		close(done)
	default:
		started := o.goTask(func() {
			defer close(done)
			if o.startCapture() {
				msg := "Let's go! Live commentary started."
				if o.source.Mode() == capture.ModeExternal {
					msg = "Commentary started on external source."
				}
				o.systemMessage(msg, ColorStarted)
			}
		})
		if !started {
			close(done)
		}
	}
	return done
}

// goTask runs fn tied to the orchestrator lifetime so Close can wait for it.
// It reports false once the orchestrator is closed.
func (o *Orchestrator) goTask(fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()
		fn()
	}()
	return true
}

func (o *Orchestrator) startCapture() bool {
	o.mu.Lock()
	if o.capturing || o.starting || o.closed {
		ok := o.capturing
		o.mu.Unlock()
		return ok
	}
	startCtx, cancel := context.WithCancel(o.ctx)
	defer cancel()
	startDone := make(chan struct{})
	defer close(startDone)
	o.starting = true
	o.startCancel = cancel
	o.startDone = startDone
	o.startAborted = false
	o.mu.Unlock()
	o.publishState()

	err := o.source.Start(startCtx)

	o.mu.Lock()
	o.starting = false
	o.startCancel = nil
	aborted := o.startAborted
	if err == nil && !o.closed && !aborted {
		o.capturing = true
		o.epoch++
	}
	ok := o.capturing
	o.mu.Unlock()

	if aborted {
		o.logger.Info("capture start cancelled")
		if err == nil {
			o.source.Stop()
		}
		o.publishState()
		return false
	}
	if err != nil {
		o.logger.Info("capture start failed", "error", err)
		msg := o.source.LastError()
		if msg == "" {
			msg = err.Error()
		}
		o.systemMessage(msg, ColorError)
		o.publishState()
		return false
	}
	if !ok {
		o.source.Stop()
		return false
	}

	o.startLoops()
	o.publishState()
	return true
}

func (o *Orchestrator) stopCapture() {
	o.source.Stop()
	o.halt()
}

// SourceEnded is called when the viewer stops sharing from their side. The
// session winds down without a chat message.
func (o *Orchestrator) SourceEnded() {
	o.halt()
}

// halt stops both loops and drops the pending queue. The seen cache is kept
// so a resumed session does not repeat earlier comments.
func (o *Orchestrator) halt() {
	o.mu.Lock()
	o.capturing = false
	o.epoch++
	o.mu.Unlock()

	o.stopLoops()

	o.mu.Lock()
	o.queue.clear()
	o.mu.Unlock()

	o.publishState()
}

// SendMessage posts the viewer's own line, starts capture if needed, and after
// a short settle delay asks the provider to respond to it.
func (o *Orchestrator) SendMessage(text string) (ChatMessage, <-chan struct{}) {
	msg := o.AddMessage(text, MeUsername, DefaultColor, "")
	done := make(chan struct{})

	started := o.goTask(func() {
		defer close(done)

		active := o.State().Capturing
		if !active {
			active = o.startCapture()
		}
		if !active {
			return
		}

		timer := time.NewTimer(o.settleDelay)
		defer timer.Stop()
		select {
		case <-o.ctx.Done():
			return
		case <-timer.C:
		}
		o.TriggerEvaluation(o.ctx, text)
	})
	if !started {
		close(done)
	}
	return msg, done
}

// TriggerEvaluation captures a frame and asks the provider for comments.
// Without a user prompt it is a no-op while another call is outstanding.
func (o *Orchestrator) TriggerEvaluation(ctx context.Context, userPrompt string) {
	o.mu.Lock()
	if o.inFlight > 0 && userPrompt == "" {
		o.mu.Unlock()
		telemetry.EvaluationSkipped(telemetry.SkipInFlight)
		return
	}
	o.inFlight++
	epoch := o.epoch
	req := vision.Request{
		Settings:   o.settings,
		History:    o.historyLocked(),
		UserPrompt: userPrompt,
		Prompts:    o.prompts,
		Context:    maps.Clone(o.appData),
		OnProgress: o.setProgress,
	}
	o.mu.Unlock()
	o.publishState()

	defer func() {
		o.mu.Lock()
		o.inFlight--
		o.mu.Unlock()
		o.publishState()
	}()

	frame, err := o.source.CaptureFrame(ctx)
	if err != nil {
		o.logger.Debug("frame capture failed", "error", err)
	}
	if frame == "" {
		telemetry.EvaluationSkipped(telemetry.SkipNoFrame)
		return
	}
	req.Image = frame

	raw, err := o.provider.FetchRawResponse(ctx, req)
	if !o.current(epoch) {
		telemetry.EvaluationSkipped(telemetry.SkipStale)
		return
	}
	if err != nil {
		o.logger.Warn("evaluation failed", "error", err)
		o.reportError(vision.Message(err))
		return
	}

	if o.transform != nil {
		msgs, err := o.transform(raw)
		if err != nil {
			o.logger.Warn("response transform failed", "error", err)
			o.reportError(err.Error())
			return
		}
		o.mergeMessages(msgs)
		return
	}

	o.enqueue(o.provider.ParseResponse(raw), frame)
}

func (o *Orchestrator) current(epoch uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.epoch == epoch && !o.closed
}

func (o *Orchestrator) historyLocked() []vision.ChatLine {
	msgs := o.messages
	if len(msgs) > vision.HistoryWindow {
		msgs = msgs[len(msgs)-vision.HistoryWindow:]
	}
	lines := make([]vision.ChatLine, len(msgs))
	for i, m := range msgs {
		lines[i] = vision.ChatLine{Username: m.Username, Text: m.Text}
	}
	return lines
}

// enqueue dedups a parsed batch against itself and the seen cache and queues
// the survivors.
func (o *Orchestrator) enqueue(comments []string, frame string) {
	if len(comments) == 0 {
		return
	}

	o.mu.Lock()
	fresh := o.seen.FilterNew(comments)
	o.queue.push(batchItems(fresh, frame)...)
	o.mu.Unlock()

	for range fresh {
		telemetry.CommentQueued()
	}
	for i := len(fresh); i < len(comments); i++ {
		telemetry.CommentDuplicate()
	}
	o.publishState()
}

func (o *Orchestrator) setProgress(p vision.Progress) {
	o.mu.Lock()
	if p.Status != "" {
		o.loading.Status = LoadingStatus(p.Status)
	}
	o.loading.Message = p.Message
	o.loading.Progress = p.Progress
	o.mu.Unlock()

	o.publishState()
}

// UpdateSettings applies patch, validates the result and persists it.
func (o *Orchestrator) UpdateSettings(ctx context.Context, patch *settings.Patch) (settings.Settings, error) {
	o.mu.Lock()
	next := settings.Merge(o.settings, patch)
	if err := next.Validate(); err != nil {
		o.mu.Unlock()
		return settings.Settings{}, err
	}
	o.settings = next
	o.mu.Unlock()

	o.persist(ctx, next)

	select {
	case o.intervalChanged <- struct{}{}:
	default:
	}

	redacted := next.Redacted()
	o.events.publish(Event{Type: EventSettings, WidgetID: o.id, Settings: &redacted})
	return next, nil
}

// SetContext replaces the application data passed to the provider.
func (o *Orchestrator) SetContext(data map[string]any) {
	o.mu.Lock()
	o.appData = maps.Clone(data)
	o.mu.Unlock()
}

func (o *Orchestrator) Context() map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return maps.Clone(o.appData)
}

// ResetSeen forgets every comment shown so far.
func (o *Orchestrator) ResetSeen() {
	o.mu.Lock()
	o.seen.Reset()
	o.mu.Unlock()
}

// RequestScreenshare announces that the widget is waiting for the viewer to
// pick a screen.
func (o *Orchestrator) RequestScreenshare() {
	o.events.publish(Event{Type: EventScreenshareRequest, WidgetID: o.id})
}

func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.source.Stop()
	o.stopLoops()
	o.cancel()
	o.tasks.Wait()

	o.mu.Lock()
	o.capturing = false
	o.queue.clear()
	o.seen.Reset()
	o.mu.Unlock()

	o.events.close()
	o.logger.Info("widget closed")
}
