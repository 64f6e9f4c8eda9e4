package commentary

import (
	"context"
	"time"

	"github.com/eleven-am/live-commentary/internal/telemetry"
)

const minCaptureInterval = time.Second

func (o *Orchestrator) startLoops() {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()

	if o.loopCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(o.ctx)
	o.loopCancel = cancel

	// Drop any interval change made while idle; the first tick reads fresh settings.
	select {
	case <-o.intervalChanged:
	default:
	}

	o.loopWG.Add(1)
	go o.triggerLoop(ctx)

	if o.transform == nil {
		o.loopWG.Add(1)
		go o.displayLoop(ctx)
	}
}

// stopLoops cancels both loops and waits for them to return.
func (o *Orchestrator) stopLoops() {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()

	if o.loopCancel == nil {
		return
	}
	o.loopCancel()
	o.loopWG.Wait()
	o.loopCancel = nil
}

func (o *Orchestrator) captureInterval() time.Duration {
	o.mu.Lock()
	secs := o.settings.CaptureInterval
	o.mu.Unlock()

	d := time.Duration(secs * float64(time.Second))
	if d < minCaptureInterval {
		d = minCaptureInterval
	}
	return d
}

// shouldEvaluate holds the loop back while the queue has a backlog, a call is
// outstanding or the provider is still loading.
func (o *Orchestrator) shouldEvaluate() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.queue.len() >= queueHighWater:
		telemetry.EvaluationSkipped(telemetry.SkipBacklog)
		return false
	case o.inFlight > 0:
		telemetry.EvaluationSkipped(telemetry.SkipInFlight)
		return false
	case o.loading.Status == LoadingLoading:
		telemetry.EvaluationSkipped(telemetry.SkipLoading)
		return false
	}
	return true
}

func (o *Orchestrator) triggerLoop(ctx context.Context) {
	defer o.loopWG.Done()

	interval := o.captureInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		if o.shouldEvaluate() {
			o.TriggerEvaluation(ctx, "")
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.intervalChanged:
			if next := o.captureInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				o.logger.Debug("capture interval changed", "interval", interval)
			}
			check()
		case <-ticker.C:
			check()
		}
	}
}

func (o *Orchestrator) displayLoop(ctx context.Context) {
	defer o.loopWG.Done()

	timer := time.NewTimer(o.displayInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			o.displayNext()
			timer.Reset(o.displayInterval())
		}
	}
}

// displayNext moves the oldest queued comment into the chat under a random
// viewer name.
func (o *Orchestrator) displayNext() bool {
	o.mu.Lock()
	item, ok := o.queue.pop()
	o.mu.Unlock()
	if !ok {
		return false
	}

	o.AddMessage(item.Text, "", "", item.Attachment)
	telemetry.CommentDisplayed()
	return true
}
