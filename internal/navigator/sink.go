package navigator

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/parkpilot-core/internal/geo"
)

// Sink receives every visible change. Methods are called on the navigator
// loop and must return quickly.
type Sink interface {
	VehicleMoved(VehicleFrame)
	Arrived(ArrivalEvent)
	DetailChanged(DetailFrame)
	RouteSelected(geo.Route)
}

// MultiSink forwards to each sink in order.
type MultiSink []Sink

func (m MultiSink) VehicleMoved(f VehicleFrame) {
	for _, s := range m {
		s.VehicleMoved(f)
	}
}

func (m MultiSink) Arrived(e ArrivalEvent) {
	for _, s := range m {
		s.Arrived(e)
	}
}

func (m MultiSink) DetailChanged(f DetailFrame) {
	for _, s := range m {
		s.DetailChanged(f)
	}
}

func (m MultiSink) RouteSelected(r geo.Route) {
	for _, s := range m {
		s.RouteSelected(r)
	}
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) VehicleMoved(VehicleFrame) {}
func (NopSink) Arrived(ArrivalEvent)      {}
func (NopSink) DetailChanged(DetailFrame) {}
func (NopSink) RouteSelected(geo.Route)   {}

// throttle lets one event through per interval, measured on event
// timestamps rather than the wall clock. A zero interval lets everything
// through.
type throttle struct {
	every time.Duration
	lim   atomic.Pointer[rate.Limiter]
}

func newThrottle(every time.Duration) *throttle {
	t := &throttle{every: every}
	t.reset()
	return t
}

func (t *throttle) allow(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return t.lim.Load().AllowN(at, 1)
}

// reset refills the bucket so the next event passes.
func (t *throttle) reset() {
	t.lim.Store(rate.NewLimiter(rate.Every(t.every), 1))
}
