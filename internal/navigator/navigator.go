package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/motion"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// pollBuffer bounds poll results waiting for the loop.
const pollBuffer = 4

// Backend is the occupancy backend the detail view reads from.
// *occupancy.Client satisfies it.
type Backend interface {
	FetchLayout(ctx context.Context) (occupancy.Layout, error)
	FetchStatus(ctx context.Context) (occupancy.Status, error)
}

// pollResult is a successful status fetch tagged with the view it belongs to.
type pollResult struct {
	generation uint64
	status     occupancy.Status
	at         time.Time
}

// Navigator is the single owner of the vehicle, the auto-drive session and
// the detail view. Create with New, then start Run on its own goroutine.
//
// Thread Safety: exported methods are safe for concurrent use. They block
// until the loop has handled them, ctx is done, or Run has returned.
type Navigator struct {
	opts    Options
	target  geo.Facility
	backend Backend
	poller  *occupancy.Poller
	sink    Sink
	logger  *logging.Logger

	commands chan func()
	polls    chan pollResult
	done     chan struct{}
	running  atomic.Bool

	// Everything below is owned by the Run goroutine.
	runCtx     context.Context
	position   geo.Position
	heading    float64
	mode       motion.Mode
	keys       motion.Keys
	session    *motion.Session
	route      *geo.Route
	detail     *detailView
	lastDetail *DetailFrame
	generation uint64
}

// New creates a Navigator. A nil sink discards events; a nil logger uses
// logging.Default.
func New(opts Options, backend Backend, sink Sink, logger *logging.Logger) (*Navigator, error) {
	if opts.Facilities == nil || opts.Facilities.Len() == 0 {
		return nil, geo.ErrEmptyCatalogue
	}
	if backend == nil {
		return nil, errors.New("navigator: backend is required")
	}
	opts = opts.withDefaults()

	target := opts.Facilities.First()
	if opts.TargetID != "" {
		t, err := opts.Facilities.Get(opts.TargetID)
		if err != nil {
			return nil, fmt.Errorf("resolving auto-drive target: %w", err)
		}
		target = t
	}

	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "navigator")

	return &Navigator{
		opts:     opts,
		target:   target,
		backend:  backend,
		poller:   occupancy.NewPoller(backend, opts.PollInterval, logger),
		sink:     sink,
		logger:   logger,
		commands: make(chan func()),
		polls:    make(chan pollResult, pollBuffer),
		done:     make(chan struct{}),
		position: opts.Start,
	}, nil
}

// Run drives the event loop until ctx is cancelled. It stops any active
// auto-drive session and detail poller before returning.
//
// Run may only be called once.
func (n *Navigator) Run(ctx context.Context) error {
	if !n.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(n.done)

	n.runCtx = ctx
	frames := time.NewTicker(n.opts.FrameInterval)
	defer frames.Stop()
	defer n.shutdown()

	n.logger.Info("navigator started",
		"position", n.position.String(),
		"target", n.target.ID,
		"facilities", n.opts.Facilities.Len(),
	)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("navigator stopping")
			return nil
		case <-frames.C:
			n.manualFrame()
		case now := <-n.session.C():
			n.autoDriveTick(now)
		case fn := <-n.commands:
			fn()
		case res := <-n.polls:
			n.applyPoll(res)
		}
	}
}

// Done is closed once Run has returned.
func (n *Navigator) Done() <-chan struct{} {
	return n.done
}

func (n *Navigator) shutdown() {
	if n.session.Stop() {
		n.logger.Info("auto-drive session stopped on shutdown", "session_id", n.session.ID)
	}
	n.session = nil
	n.closeDetail()
}

// do runs fn on the loop and returns its error.
func (n *Navigator) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)

	select {
	case n.commands <- func() { reply <- fn() }:
	case <-n.done:
		return ErrNavigatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// fn has been accepted by the loop and always replies.
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// Loop handlers
// =============================================================================

func (n *Navigator) manualFrame() {
	if !n.mode.AllowsManual() {
		return
	}

	d, moved := motion.ManualStep(n.keys, n.opts.StepDegrees)
	if !moved {
		if n.mode == motion.ModeManual {
			n.mode = motion.ModeIdle
		}
		return
	}

	n.mode = motion.ModeManual
	n.position = n.position.Offset(d.DLat, d.DLng)
	n.heading = d.Heading
	n.emitVehicle(time.Now(), true)
}

func (n *Navigator) autoDriveTick(now time.Time) {
	s := n.session
	if !s.Active() {
		return
	}

	res := n.opts.Controller.Step(n.position, s.Target.Position)
	if res.Arrived {
		n.arrive(s, res.DistanceMeters, now)
		return
	}

	n.position = res.Position
	n.heading = res.Heading
	n.emitVehicle(now, true)
}

// arrive ends the session, announces the arrival and opens the target's
// detail view.
func (n *Navigator) arrive(s *motion.Session, distance float64, now time.Time) {
	s.Stop()
	n.session = nil
	n.mode = motion.ModeIdle

	n.logger.Info("auto-drive arrived",
		"session_id", s.ID,
		"facility", s.Target.ID,
		"distance_m", distance,
		"duration", now.Sub(s.StartedAt),
	)

	n.sink.Arrived(ArrivalEvent{
		SessionID:      s.ID,
		Facility:       s.Target,
		Position:       n.position,
		DistanceMeters: distance,
		At:             now,
	})

	view, err := n.beginDetail(s.Target.ID, n.opts.ContainerWidth)
	if err != nil {
		n.logger.Warn("opening detail view on arrival", "facility", s.Target.ID, "error", err)
		return
	}
	n.startLayoutFetch(view)
}

func (n *Navigator) vehicleFrame(now time.Time, recenter bool) VehicleFrame {
	f := VehicleFrame{
		Position:       n.position,
		Heading:        n.heading,
		Mode:           n.mode,
		Recenter:       recenter,
		TargetID:       n.target.ID,
		DistanceMeters: geo.Distance(n.position, n.target.Position),
		At:             now,
	}
	if n.session.Active() {
		f.SessionID = n.session.ID
	}
	return f
}

func (n *Navigator) emitVehicle(now time.Time, recenter bool) {
	n.sink.VehicleMoved(n.vehicleFrame(now, recenter))
}

// =============================================================================
// Commands
// =============================================================================

// KeyDown marks a direction key as held. Accepts "ArrowUp" style codes.
// While auto-driving the key is tracked but does not move the vehicle.
func (n *Navigator) KeyDown(ctx context.Context, code string) error {
	return n.setKey(ctx, code, true)
}

// KeyUp releases a direction key.
func (n *Navigator) KeyUp(ctx context.Context, code string) error {
	return n.setKey(ctx, code, false)
}

func (n *Navigator) setKey(ctx context.Context, code string, pressed bool) error {
	key, err := motion.ParseKey(code)
	if err != nil {
		return err
	}
	return n.do(ctx, func() error {
		n.keys.Set(key, pressed)
		return nil
	})
}

// StartAutoDrive starts homing on the target facility. An active session is
// stopped first, so at most one session ticks at a time.
func (n *Navigator) StartAutoDrive(ctx context.Context) (motion.SessionInfo, error) {
	var info motion.SessionInfo
	err := n.do(ctx, func() error {
		if prev := n.session; prev.Stop() {
			n.logger.Info("auto-drive session replaced", "session_id", prev.ID)
		}

		s := motion.NewSession(n.target, n.opts.AutoDriveInterval)
		n.session = s
		n.mode = motion.ModeAutoDriving
		info = s.Info()

		n.logger.Info("auto-drive started",
			"session_id", s.ID,
			"facility", n.target.ID,
			"distance_m", geo.Distance(n.position, n.target.Position),
		)
		n.emitVehicle(time.Now(), false)
		return nil
	})
	return info, err
}

// CancelAutoDrive stops the active session without an arrival event.
func (n *Navigator) CancelAutoDrive(ctx context.Context) error {
	return n.do(ctx, func() error {
		s := n.session
		if !s.Stop() {
			return ErrNoActiveSession
		}
		n.session = nil
		n.mode = motion.ModeIdle

		n.logger.Info("auto-drive cancelled", "session_id", s.ID)
		n.emitVehicle(time.Now(), false)
		return nil
	})
}

// FindParking lists every facility nearest-first from the vehicle.
func (n *Navigator) FindParking(ctx context.Context) ([]geo.FacilityDistance, error) {
	var out []geo.FacilityDistance
	err := n.do(ctx, func() error {
		out = n.opts.Facilities.ByDistance(n.position)
		return nil
	})
	return out, err
}

// SelectFacility draws a straight route from the vehicle to a facility.
// Clients recenter on the route's end point.
func (n *Navigator) SelectFacility(ctx context.Context, facilityID string) (geo.Route, error) {
	var route geo.Route
	err := n.do(ctx, func() error {
		f, err := n.opts.Facilities.Get(facilityID)
		if err != nil {
			return err
		}
		route = geo.NewRoute(n.position, f)
		n.route = &route
		n.sink.RouteSelected(route)
		return nil
	})
	return route, err
}

// Snapshot returns the current state.
func (n *Navigator) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := n.do(ctx, func() error {
		st = State{
			Position:       n.position,
			Heading:        n.heading,
			Mode:           n.mode,
			Keys:           n.keys,
			Target:         n.target,
			DistanceMeters: geo.Distance(n.position, n.target.Position),
		}
		if n.session.Active() {
			info := n.session.Info()
			st.Session = &info
		}
		if n.route != nil {
			r := *n.route
			st.Route = &r
		}
		if n.lastDetail != nil {
			d := *n.lastDetail
			st.Detail = &d
		}
		return nil
	})
	return st, err
}

// Facilities returns the catalogue in configured order.
func (n *Navigator) Facilities() []geo.Facility {
	return n.opts.Facilities.All()
}

// Target returns the auto-drive destination.
func (n *Navigator) Target() geo.Facility {
	return n.target
}
