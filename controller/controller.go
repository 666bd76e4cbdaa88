package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pedaldose"
)

// ErrNotRunning is returned by requests made after the controller's Run loop has exited
var ErrNotRunning = errors.New("controller is not running")

// ActuationRequest is one accepted pedal press handed to the actuation worker
type ActuationRequest struct {
	Kind      pedaldose.PedalKind
	Increment int
	Steps     int
}

// Snapshot is the read-only view of the controller published after every change
type Snapshot struct {
	State       pedaldose.State
	Goal        int
	Accumulated int
	Active      bool
	Progress    Progress
	// AlarmVisible is the "complete" signal shown while the alarm relay is high
	AlarmVisible bool
	// Busy is true while the motors are running, including a run that outlived a stop
	Busy bool
	// Notice is a transient user-facing message for the last rejected request
	Notice string
}

type session struct {
	goal        int
	accumulated int
	active      bool
}

func (s *session) reset() {
	*s = session{}
}

type op int

const (
	opSubmitGoal op = iota
	opPedal
	opStop
	opAlarmExpired
)

type message struct {
	op    op
	goal  int
	kind  pedaldose.PedalKind
	reply chan error
}

type actuationResult struct {
	req       ActuationRequest
	upSkipped bool
	err       error
}

// Controller owns the dosing session. All session state is read and written only by the Run
// goroutine; other goroutines reach it through the inbox. Motor sequences run on a separate
// worker so Stop is serviced while the motors block
type Controller struct {
	actuator Actuator
	alarm    *Alarm
	cfg      Config
	logger   *slog.Logger
	sleep    func(time.Duration)

	inbox    chan message
	requests chan ActuationRequest
	results  chan actuationResult
	// cancelled is the only state shared with the worker. It is set by handleStop and read once
	// after the pause, before reversing
	cancelled atomic.Bool

	// owned by the Run goroutine
	session      session
	state        pedaldose.State
	busy         bool
	alarmVisible bool
	notice       string

	snapMtx  sync.RWMutex
	snapshot Snapshot

	subMtx      sync.Mutex
	subscribers []func(Event)

	running atomic.Bool
	done    chan struct{}
}

// New creates a Controller in AwaitingGoal. Nothing moves until Run is called
func New(actuator Actuator, alarm *Alarm, cfg Config, logger *slog.Logger) *Controller {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		actuator: actuator,
		alarm:    alarm,
		cfg:      cfg,
		logger:   logger,
		sleep:    time.Sleep,
		inbox:    make(chan message, cfg.InboxSize),
		requests: make(chan ActuationRequest, 1),
		results:  make(chan actuationResult, 1),
		state:    pedaldose.StateAwaitingGoal,
		done:     make(chan struct{}),
	}
	c.publish()
	return c
}

// SetSleep replaces time.Sleep for the pause between down and up runs
func (c *Controller) SetSleep(sleep func(time.Duration)) {
	c.sleep = sleep
}

// Subscribe registers f to receive every Event. f is called on the controller's goroutine and must not block
func (c *Controller) Subscribe(f func(Event)) {
	c.subMtx.Lock()
	c.subscribers = append(c.subscribers, f)
	c.subMtx.Unlock()
}

// Snapshot returns the latest published state
func (c *Controller) Snapshot() Snapshot {
	c.snapMtx.RLock()
	defer c.snapMtx.RUnlock()
	return c.snapshot
}

// Run processes requests until ctx is cancelled. On exit it waits for an in-flight actuation to
// finish and then drives the motor and alarm lines low
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller is already running")
	}
	defer close(c.done)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		c.actuationWorker()
	}()

	defer func() {
		close(c.requests)
		<-workerDone
		if d, ok := c.actuator.(interface{ Disable() }); ok {
			d.Disable()
		}
		if c.alarm != nil {
			c.alarm.Silence()
		}
		c.logger.Info("controller stopped")
	}()

	c.logger.Info("controller started", "state", c.state.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.inbox:
			c.handle(msg)
		case res := <-c.results:
			c.finishActuation(res)
		}
	}
}

// SubmitGoal starts a session with the given goal
func (c *Controller) SubmitGoal(ctx context.Context, goal int) error {
	return c.request(ctx, message{op: opSubmitGoal, goal: goal})
}

// SubmitGoalText parses raw user input and submits it. Non-numeric input is ErrInvalidGoal
func (c *Controller) SubmitGoalText(ctx context.Context, input string) error {
	goal, err := pedaldose.ParseGoal(input)
	if err != nil {
		// submit anyway so the rejection is published like any other invalid goal
		goal = 0
	}
	return c.SubmitGoal(ctx, goal)
}

// Pedal enqueues a pedal press without blocking, so it can be used from edge handlers.
// It returns false if the inbox is full and the press was dropped
func (c *Controller) Pedal(kind pedaldose.PedalKind) bool {
	select {
	case c.inbox <- message{op: opPedal, kind: kind}:
		return true
	default:
		c.logger.Warn("inbox full, dropping pedal", "pedal", kind.String())
		return false
	}
}

// PressPedal enqueues a pedal press and waits for the controller to accept or reject it.
// It returns once the actuation has started, not when it finishes
func (c *Controller) PressPedal(ctx context.Context, kind pedaldose.PedalKind) error {
	return c.request(ctx, message{op: opPedal, kind: kind})
}

// Stop requests cancellation of any in-flight actuation and resets the session. The owner sets
// the cancellation flag and resets together, so a Stop that is never queued changes nothing
func (c *Controller) Stop(ctx context.Context) error {
	return c.request(ctx, message{op: opStop})
}

func (c *Controller) request(ctx context.Context, msg message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg.reply = make(chan error, 1)

	select {
	case c.inbox <- msg:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotRunning
	}

	select {
	case err := <-msg.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotRunning
	}
}

// alarmExpired runs on the alarm's scheduler and must not block it
func (c *Controller) alarmExpired() {
	msg := message{op: opAlarmExpired}
	select {
	case c.inbox <- msg:
	default:
		go func() {
			select {
			case c.inbox <- msg:
			case <-c.done:
			}
		}()
	}
}

func (c *Controller) handle(msg message) {
	var err error
	switch msg.op {
	case opSubmitGoal:
		err = c.handleSubmitGoal(msg.goal)
	case opPedal:
		err = c.handlePedal(msg.kind)
	case opStop:
		c.handleStop()
	case opAlarmExpired:
		c.handleAlarmExpired()
	}

	if msg.reply != nil {
		msg.reply <- err
	}
}

func (c *Controller) handleSubmitGoal(goal int) error {
	if goal <= 0 {
		c.notice = pedaldose.ErrInvalidGoal.Error()
		c.logger.Warn("rejected goal", "goal", goal)
		c.publish()
		c.emit(EventGoalRejected, pedaldose.PedalUnknown, pedaldose.ErrInvalidGoal)
		return pedaldose.ErrInvalidGoal
	}

	if c.session.active {
		c.logger.Warn("rejected goal while session is active", "goal", goal, "current_goal", c.session.goal)
		c.emit(EventGoalRejected, pedaldose.PedalUnknown, pedaldose.ErrSessionActive)
		return pedaldose.ErrSessionActive
	}

	c.session = session{goal: goal, active: true}
	c.state = pedaldose.StateReady
	c.notice = ""

	c.logger.Info("goal set", "goal", goal)
	c.publish()
	c.emit(EventGoalSet, pedaldose.PedalUnknown, nil)
	return nil
}

func (c *Controller) handlePedal(kind pedaldose.PedalKind) error {
	if !kind.Valid() {
		return errors.New("unknown pedal")
	}

	if !c.session.active {
		c.notice = pedaldose.ErrGoalNotSet.Error()
		c.logger.Warn("pedal pressed before goal was set", "pedal", kind.String())
		c.publish()
		c.emit(EventPedalRejected, kind, pedaldose.ErrGoalNotSet)
		return pedaldose.ErrGoalNotSet
	}

	if c.state != pedaldose.StateReady || c.busy {
		c.logger.Debug("ignoring pedal", "pedal", kind.String(), "state", c.state.String(), "busy", c.busy)
		return pedaldose.ErrActuationInProgress
	}

	req := ActuationRequest{
		Kind:      kind,
		Increment: kind.Increment(),
		Steps:     kind.Steps(),
	}

	c.cancelled.Store(false)
	c.session.accumulated += req.Increment
	c.state = pedaldose.StateActuating
	c.busy = true
	c.notice = ""

	// requests has room for one and busy guarantees it is empty
	c.requests <- req

	c.logger.Info("pedal accepted",
		"pedal", kind.String(),
		"increment", req.Increment,
		"accumulated", c.session.accumulated,
		"goal", c.session.goal,
	)
	c.publish()
	c.emit(EventPedalAccepted, kind, nil)
	return nil
}

func (c *Controller) handleStop() {
	c.cancelled.Store(true)

	c.logger.Info("stop requested", "state", c.state.String(), "accumulated", c.session.accumulated, "busy", c.busy)

	c.session.reset()
	c.state = pedaldose.StateAwaitingGoal
	c.notice = ""

	c.publish()
	c.emit(EventStopped, pedaldose.PedalUnknown, nil)
}

func (c *Controller) handleAlarmExpired() {
	c.alarmVisible = false
	if c.state == pedaldose.StateCompleting {
		c.session.reset()
		c.state = pedaldose.StateAwaitingGoal
		c.logger.Info("session complete, awaiting goal")
	}

	c.publish()
	c.emit(EventAlarmExpired, pedaldose.PedalUnknown, nil)
}

func (c *Controller) finishActuation(res actuationResult) {
	c.busy = false

	if res.err != nil {
		c.logger.Error("actuation failed", "pedal", res.req.Kind.String(), "error", res.err)
	}

	// a stop reset the session while the motors were running
	if c.state != pedaldose.StateActuating {
		c.logger.Info("actuation finished after stop", "pedal", res.req.Kind.String(), "up_skipped", res.upSkipped)
		c.publish()
		c.emit(EventActuationDone, res.req.Kind, res.err)
		return
	}

	if c.session.accumulated < c.session.goal {
		c.state = pedaldose.StateReady
		c.publish()
		c.emit(EventActuationDone, res.req.Kind, res.err)
		return
	}

	c.state = pedaldose.StateCompleting
	c.alarmVisible = true
	c.logger.Info("goal reached", "accumulated", c.session.accumulated, "goal", c.session.goal)

	if c.alarm != nil {
		err := c.alarm.Raise(c.alarmExpired)
		if err != nil {
			// the pending alarm's expiry resets this session since the state is Completing
			c.logger.Warn("alarm already pending, completion shortened to its remaining time", "error", err)
		}
	}

	c.publish()
	c.emit(EventCompleted, res.req.Kind, nil)

	if c.alarm == nil {
		c.handleAlarmExpired()
	}
}

func (c *Controller) actuationWorker() {
	for req := range c.requests {
		c.results <- c.actuate(req)
	}
}

// actuate runs down, pause, checkpoint, up. The cancellation flag is read exactly once
func (c *Controller) actuate(req ActuationRequest) actuationResult {
	half := HalfPeriod(c.cfg.PulseTrain, req.Steps)

	err := c.actuator.Run(req.Steps, pedaldose.DirectionDown, half)
	if err != nil {
		return actuationResult{req: req, err: err}
	}

	c.sleep(c.cfg.pauseFor(req.Kind))

	if c.cancelled.Load() {
		c.logger.Info("stop requested during pause, skipping up", "pedal", req.Kind.String())
		return actuationResult{req: req, upSkipped: true}
	}

	err = c.actuator.Run(req.Steps, pedaldose.DirectionUp, half)
	return actuationResult{req: req, err: err}
}

func (c *Controller) publish() {
	snap := Snapshot{
		State:        c.state,
		Goal:         c.session.goal,
		Accumulated:  c.session.accumulated,
		Active:       c.session.active,
		AlarmVisible: c.alarmVisible,
		Busy:         c.busy,
		Notice:       c.notice,
	}
	if c.session.goal > 0 {
		snap.Progress, _ = ComputeProgress(c.session.accumulated, c.session.goal, c.cfg.BarWidth)
	}

	c.snapMtx.Lock()
	c.snapshot = snap
	c.snapMtx.Unlock()
}

func (c *Controller) emit(t EventType, kind pedaldose.PedalKind, err error) {
	c.subMtx.Lock()
	subs := make([]func(Event), len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMtx.Unlock()

	if len(subs) == 0 {
		return
	}

	e := Event{
		Type:     t,
		Kind:     kind,
		Err:      err,
		Snapshot: c.Snapshot(),
		Time:     time.Now(),
	}
	for _, f := range subs {
		f(e)
	}
}
