// Package dashboard implements the polling UI controller: it toggles the
// upstream simulation, polls its state on a ticker and renders every
// snapshot into the shared page document.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fuel-dashboard-backend/config"
	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
	"fuel-dashboard-backend/internal/render"
	"fuel-dashboard-backend/internal/store"
	"fuel-dashboard-backend/internal/upstream"
)

// ToggleFailedMessage is the alert shown when a toggle command fails.
const ToggleFailedMessage = "Failed to toggle fueling state"

// AlertSeqKey is the alert element data key numbering toggle failures, so
// that repeated identical alerts stay distinguishable.
const AlertSeqKey = "seq"

// Upstream is the fueling simulation server.
type Upstream interface {
	Toggle(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// Publisher receives every view after it changes.
type Publisher interface {
	Publish(v page.View)
}

// SessionNotifier is told about every closed fueling session.
type SessionNotifier interface {
	SessionFinished(sessionID int64)
}

// Options configures the controller.
type Options struct {
	Interval           time.Duration
	FinalRefreshOnStop bool
	ResumeOnStart      bool
	SampleInterval     time.Duration // zero disables history sampling
	Render             render.Options
}

// OptionsFromConfig maps the poller and history configuration to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Interval:           cfg.Poller.Interval,
		FinalRefreshOnStop: cfg.Poller.FinalRefreshOnStop,
		ResumeOnStart:      cfg.Poller.ResumeOnStart,
		Render: render.Options{
			HoldLimit:    cfg.Poller.HoldLimit,
			LogLimit:     cfg.Poller.LogLimit,
			ExpandFrames: cfg.Poller.ExpandFrames,
			Flow:         cfg.Poller.FlowVisualization,
			FlowLimits: render.FlowLimits{
				MaxFlow:     cfg.Poller.MaxFlowRate,
				MaxPayment:  cfg.Poller.MaxPaymentRate,
				HighFlow:    cfg.Poller.HighFlowRate,
				HighPayment: cfg.Poller.HighPaymentRate,
			},
		},
	}
	if cfg.History.Enabled {
		opts.SampleInterval = cfg.History.SampleInterval
	}
	return opts
}

type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns the run state, the single polling ticker and the page
// document.
type Controller struct {
	opts      Options
	upstream  Upstream
	store     store.Store
	doc       *page.Document
	publisher Publisher
	notifier  SessionNotifier
	now       func() time.Time

	// toggleMu serializes toggle commands and the startup resume; it also
	// guards failures.
	toggleMu sync.Mutex
	failures uint64

	// mu guards state, poller and sessionID.
	mu        sync.Mutex
	state     model.RunState
	poller    *poller
	sessionID int64

	// renderMu guards the refresh sequence and the last applied snapshot.
	renderMu   sync.Mutex
	nextSeq    uint64
	appliedSeq uint64
	last       *model.Snapshot

	sampleMu     sync.Mutex
	lastSampleAt time.Time

	activePollers atomic.Int32
}

// NewController creates a controller. st may be nil to disable persistence.
func NewController(opts Options, up Upstream, st store.Store, doc *page.Document) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	return &Controller{
		opts:     opts,
		upstream: up,
		store:    st,
		doc:      doc,
		now:      time.Now,
	}
}

// SetPublisher registers the receiver of rendered views.
func (c *Controller) SetPublisher(p Publisher) {
	c.publisher = p
}

// SetNotifier registers the receiver of finished sessions.
func (c *Controller) SetNotifier(n SessionNotifier) {
	c.notifier = n
}

// Document returns the page document the controller renders into.
func (c *Controller) Document() *page.Document {
	return c.doc
}

// State returns the local mirror of the upstream run state.
func (c *Controller) State() model.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Polling reports whether the polling ticker is running.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poller != nil
}

// ActivePollers returns the number of live polling goroutines.
func (c *Controller) ActivePollers() int {
	return int(c.activePollers.Load())
}

// LastSnapshot returns the most recently rendered snapshot, or nil.
func (c *Controller) LastSnapshot() *model.Snapshot {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.last
}

// Run renders the initial state, resumes polling when the upstream is
// already fueling, and stops polling when ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	log.Println("Starting dashboard controller...")
	state := c.State()
	c.mutate(func(els page.Elements) {
		render.Controls(els, state)
	})

	if err := c.Refresh(ctx); err == nil && c.opts.ResumeOnStart {
		c.resume(ctx)
	}

	<-ctx.Done()
	c.StopPolling()
	log.Println("Dashboard controller shutting down.")
}

func (c *Controller) resume(ctx context.Context) {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()

	snap := c.LastSnapshot()
	if snap == nil || !snap.FuelingActive || c.State().IsFueling {
		return
	}
	log.Println("Upstream is already fueling, resuming polling.")
	c.activate(ctx)
}

// Toggle sends the toggle command upstream and applies the answer. On any
// failure an alert is shown and the run state and ticker are left unchanged.
func (c *Controller) Toggle(ctx context.Context) (model.RunState, error) {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()

	status, err := c.upstream.Toggle(ctx)
	if err == nil && status != model.ToggleStarted && status != model.ToggleStopped {
		err = fmt.Errorf("%w: %q", upstream.ErrUnexpectedStatus, status)
	}
	if err != nil {
		log.Printf("Error toggling fueling: %v", err)
		c.failures++
		seq := strconv.FormatUint(c.failures, 10)
		c.mutate(func(els page.Elements) {
			el := els.Element(page.IDAlert)
			render.Alert(el, ToggleFailedMessage)
			el.SetData(AlertSeqKey, seq)
		})
		return c.State(), fmt.Errorf("toggle fueling: %w", err)
	}

	switch status {
	case model.ToggleStarted:
		c.activate(ctx)
	case model.ToggleStopped:
		c.deactivate(ctx)
	}
	return c.State(), nil
}

func (c *Controller) activate(ctx context.Context) {
	c.setState(true)
	c.openSession(ctx)
	c.StartPolling()
}

func (c *Controller) deactivate(ctx context.Context) {
	c.StopPolling()
	c.setState(false)

	var final *model.Snapshot
	if c.opts.FinalRefreshOnStop {
		if err := c.Refresh(ctx); err == nil {
			final = c.LastSnapshot()
		}
	}
	c.closeSession(ctx, final)
}

func (c *Controller) setState(fueling bool) {
	c.mu.Lock()
	c.state.IsFueling = fueling
	state := c.state
	c.mu.Unlock()

	c.mutate(func(els page.Elements) {
		render.Controls(els, state)
		render.Alert(els.Element(page.IDAlert), "")
	})
}

// StartPolling starts the refresh ticker. A running ticker is stopped first,
// so at most one poller exists at any time.
func (c *Controller) StartPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPollerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{cancel: cancel, done: make(chan struct{})}
	c.poller = p
	c.activePollers.Add(1)
	go c.poll(ctx, p)
}

// StopPolling stops the refresh ticker and waits for it to exit.
func (c *Controller) StopPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPollerLocked()
}

func (c *Controller) stopPollerLocked() {
	if c.poller == nil {
		return
	}
	c.poller.cancel()
	<-c.poller.done
	c.poller = nil
}

func (c *Controller) poll(ctx context.Context, p *poller) {
	defer func() {
		c.activePollers.Add(-1)
		close(p.done)
	}()

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Error refreshing fuel data: %v", err)
			}
		}
	}
}

// Refresh fetches one snapshot and renders it. On failure the previous
// render is kept. A snapshot whose request started before the last applied
// one is discarded.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.beginRefresh()

	snap, err := c.upstream.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch fuel data: %w", err)
	}

	if !c.apply(seq, snap) {
		return nil
	}
	c.recordSample(ctx, snap)
	return nil
}

func (c *Controller) beginRefresh() uint64 {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.nextSeq++
	return c.nextSeq
}

func (c *Controller) apply(seq uint64, snap *model.Snapshot) bool {
	c.renderMu.Lock()
	if seq < c.appliedSeq {
		c.renderMu.Unlock()
		return false
	}
	c.appliedSeq = seq
	c.last = snap
	c.doc.Mutate(func(els page.Elements) {
		render.Snapshot(els, snap, c.opts.Render)
	})
	c.renderMu.Unlock()

	c.publish()
	return true
}

func (c *Controller) mutate(fn func(page.Elements)) {
	c.doc.Mutate(fn)
	c.publish()
}

func (c *Controller) publish() {
	if c.publisher != nil {
		c.publisher.Publish(c.doc.View())
	}
}
