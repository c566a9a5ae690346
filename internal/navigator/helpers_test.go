package navigator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// fakeBackend serves a fixed layout and status.
type fakeBackend struct {
	mu          sync.Mutex
	layout      occupancy.Layout
	layoutErr   error
	status      string
	statusErr   error
	layoutCalls int
	statusCalls int
}

func (b *fakeBackend) FetchLayout(ctx context.Context) (occupancy.Layout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.layoutCalls++
	return b.layout, b.layoutErr
}

func (b *fakeBackend) FetchStatus(ctx context.Context) (occupancy.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCalls++
	if b.statusErr != nil {
		return occupancy.Status{}, b.statusErr
	}
	return occupancy.Status{StatusString: b.status}, nil
}

func (b *fakeBackend) StatusCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

func (b *fakeBackend) SetStatus(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu       sync.Mutex
	vehicles []VehicleFrame
	arrivals []ArrivalEvent
	details  []DetailFrame
	routes   []geo.Route
}

func (s *recordingSink) VehicleMoved(f VehicleFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append(s.vehicles, f)
}

func (s *recordingSink) Arrived(e ArrivalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrivals = append(s.arrivals, e)
}

func (s *recordingSink) DetailChanged(f DetailFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = append(s.details, f)
}

func (s *recordingSink) RouteSelected(r geo.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, r)
}

func (s *recordingSink) Arrivals() []ArrivalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ArrivalEvent(nil), s.arrivals...)
}

func (s *recordingSink) Details() []DetailFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DetailFrame(nil), s.details...)
}

func (s *recordingSink) Vehicles() []VehicleFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VehicleFrame(nil), s.vehicles...)
}

func (s *recordingSink) Routes() []geo.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]geo.Route(nil), s.routes...)
}

// lastDetail returns the most recent detail frame, if any.
func (s *recordingSink) lastDetail() (DetailFrame, bool) {
	d := s.Details()
	if len(d) == 0 {
		return DetailFrame{}, false
	}
	return d[len(d)-1], true
}

var testFacilities = []geo.Facility{
	{ID: "lot_st_thomas", Name: "St. Thomas College", Position: geo.Position{Lat: 10.5222, Lng: 76.2177}},
	{ID: "lot_jubilee", Name: "Jubilee Park", Position: geo.Position{Lat: 10.5230, Lng: 76.2185}},
	{ID: "lot_city_mall", Name: "City Mall Parking", Position: geo.Position{Lat: 10.5210, Lng: 76.2155}},
}

func fourSlotLayout() occupancy.Layout {
	return occupancy.Layout{LotID: "st_thomas", Slots: []occupancy.Slot{
		{Index: 0, X: 0, Y: 0, W: 100, H: 200},
		{Index: 1, X: 100, Y: 0, W: 100, H: 200},
		{Index: 2, X: 200, Y: 0, W: 100, H: 200},
		{Index: 3, X: 300, Y: 0, W: 100, H: 200},
	}}
}

// testOptions ticks fast for manual frames and polls, and never for
// auto-drive unless a test sets AutoDriveInterval.
func testOptions(t *testing.T) Options {
	t.Helper()
	cat, err := geo.NewCatalogue(testFacilities)
	if err != nil {
		t.Fatalf("NewCatalogue() error = %v", err)
	}
	return Options{
		SiteID:            "test",
		Start:             geo.Position{Lat: 10.5215, Lng: 76.2165},
		Facilities:        cat,
		FrameInterval:     time.Millisecond,
		AutoDriveInterval: time.Hour,
		PollInterval:      5 * time.Millisecond,
		ContainerWidth:    800,
		ReferenceWidth:    800,
	}
}

// startNavigator runs a navigator until the test ends.
func startNavigator(t *testing.T, opts Options, backend Backend) (*Navigator, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	n, err := New(opts, backend, sink, logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-n.Done()
	})
	return n, sink
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}
