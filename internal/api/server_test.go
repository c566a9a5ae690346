package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/navigator"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// stubBackend serves a fixed layout and status to the navigator.
type stubBackend struct {
	mu        sync.Mutex
	layout    occupancy.Layout
	layoutErr error
	status    string
}

func (b *stubBackend) FetchLayout(context.Context) (occupancy.Layout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layout, b.layoutErr
}

func (b *stubBackend) FetchStatus(context.Context) (occupancy.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return occupancy.Status{StatusString: b.status}, nil
}

type stubConnection bool

func (c stubConnection) IsConnected() bool { return bool(c) }

type stubTelemetry struct{ stats influxdb.Stats }

func (stubTelemetry) IsConnected() bool       { return true }
func (s stubTelemetry) Stats() influxdb.Stats { return s.stats }

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
}

func twoSlotBackend() *stubBackend {
	return &stubBackend{
		layout: occupancy.Layout{LotID: "st_thomas", Slots: []occupancy.Slot{
			{Index: 0, X: 0, Y: 0, W: 100, H: 200},
			{Index: 1, X: 100, Y: 0, W: 100, H: 200},
		}},
		status: "10",
	}
}

// testServer creates a Server around a running navigator whose events go
// to the server's hub.
func testServer(t *testing.T, backend *stubBackend) *Server {
	t.Helper()

	log := testLogger()
	hub := NewHub(testWSConfig(), log)

	cat, err := geo.NewCatalogue([]geo.Facility{
		{ID: "lot_st_thomas", Name: "St. Thomas College", Position: geo.Position{Lat: 10.5222, Lng: 76.2177}},
		{ID: "lot_jubilee", Name: "Jubilee Park", Position: geo.Position{Lat: 10.5230, Lng: 76.2185}},
		{ID: "lot_city_mall", Name: "City Mall Parking", Position: geo.Position{Lat: 10.5210, Lng: 76.2155}},
	})
	if err != nil {
		t.Fatalf("NewCatalogue() error: %v", err)
	}

	nav, err := navigator.New(navigator.Options{
		SiteID:            "test",
		Start:             geo.Position{Lat: 10.5215, Lng: 76.2165},
		Facilities:        cat,
		FrameInterval:     time.Millisecond,
		AutoDriveInterval: time.Hour,
		PollInterval:      10 * time.Millisecond,
	}, backend, hub, log)
	if err != nil {
		t.Fatalf("navigator.New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	go func() { _ = nav.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-nav.Done()
	})

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS:        testWSConfig(),
		Logger:    log,
		Navigator: nav,
		Hub:       hub,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

// do sends one request through the router.
func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

// ─── Server Lifecycle Tests ────────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without navigator should fail")
	}
}

func TestServer_StartAndClose(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	srv.cfg.Port = 19080

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Start = %v", err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", srv.cfg.Port)
	var resp *http.Response
	var err error
	for i := 0; i < 20; i++ {
		resp, err = http.Get("http://" + addr + "/api/v1/health")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health check status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := http.Get("http://" + addr + "/api/v1/health"); err == nil {
		t.Error("server still responding after Close()")
	}
}

func TestServer_HealthCheckBeforeStart(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}
}

// ─── Health & Middleware Tests ─────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	w := do(t, srv, http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
}

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	w := do(t, srv, http.MethodGet, "/api/v1/health", "")

	if _, err := uuid.Parse(w.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID = %q is not a UUID", w.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLength+1))
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if _, err := uuid.Parse(w.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID = %q, want a generated UUID", w.Header().Get("X-Request-ID"))
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "http://any", true},
		{"wildcard", []string{"*"}, "http://any", true},
		{"listed", []string{"http://a", "http://b"}, "http://b", true},
		{"not listed", []string{"http://a"}, "http://b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{}
			s.cfg.CORS.AllowedOrigins = tt.allowed
			if got := s.isAllowedOrigin(tt.origin); got != tt.want {
				t.Errorf("isAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/vehicle/keys", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	srv.cfg.CORS.AllowedOrigins = []string{"http://map.local"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.local")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q for disallowed origin", got)
	}
}

func TestNotFound(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	w := do(t, srv, http.MethodGet, "/api/v1/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Vehicle Tests ─────────────────────────────────────────────────

func TestGetVehicle(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	w := do(t, srv, http.MethodGet, "/api/v1/vehicle", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var st struct {
		Position geo.Position `json:"position"`
		Mode     string       `json:"mode"`
		Target   geo.Facility `json:"target"`
		Distance float64      `json:"distance_m"`
	}
	decode(t, w, &st)

	if st.Mode != "idle" || st.Position.Lat != 10.5215 {
		t.Errorf("vehicle = %+v", st)
	}
	if st.Target.ID != "lot_st_thomas" || st.Distance <= 0 {
		t.Errorf("target = %q distance = %v", st.Target.ID, st.Distance)
	}
}

func TestVehicleKey(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"press", `{"key":"ArrowUp","pressed":true}`, http.StatusNoContent},
		{"release", `{"key":"ArrowUp","pressed":false}`, http.StatusNoContent},
		{"bare name", `{"key":"left","pressed":false}`, http.StatusNoContent},
		{"unknown key", `{"key":"Space","pressed":true}`, http.StatusBadRequest},
		{"missing key", `{"pressed":true}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/v1/vehicle/keys", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestVehicleKey_MovesVehicle(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	do(t, srv, http.MethodPost, "/api/v1/vehicle/keys", `{"key":"ArrowRight","pressed":true}`)
	time.Sleep(20 * time.Millisecond)
	do(t, srv, http.MethodPost, "/api/v1/vehicle/keys", `{"key":"ArrowRight","pressed":false}`)

	var st struct {
		Position geo.Position `json:"position"`
		Heading  float64      `json:"heading"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/v1/vehicle", ""), &st)
	if st.Position.Lng <= 76.2165 || st.Heading != 90 {
		t.Errorf("after ArrowRight: %+v", st)
	}
}

func TestAutoDrive_StartAndCancel(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	w := do(t, srv, http.MethodPost, "/api/v1/autodrive", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", w.Code)
	}
	var info struct {
		ID     string       `json:"id"`
		Target geo.Facility `json:"target"`
		Active bool         `json:"active"`
	}
	decode(t, w, &info)
	if _, err := uuid.Parse(info.ID); err != nil || !info.Active || info.Target.ID != "lot_st_thomas" {
		t.Errorf("session = %+v", info)
	}

	if w := do(t, srv, http.MethodDelete, "/api/v1/autodrive", ""); w.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d, want 204", w.Code)
	}

	w = do(t, srv, http.MethodDelete, "/api/v1/autodrive", "")
	if w.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", w.Code)
	}
	var apiErr Error
	decode(t, w, &apiErr)
	if apiErr.Code != ErrCodeConflict {
		t.Errorf("error code = %q", apiErr.Code)
	}
}

// ─── Facility Tests ────────────────────────────────────────────────

func TestListFacilities_NearestFirst(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	w := do(t, srv, http.MethodGet, "/api/v1/facilities", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Facilities []struct {
			ID       string  `json:"id"`
			Distance float64 `json:"distance_m"`
		} `json:"facilities"`
		Count int `json:"count"`
	}
	decode(t, w, &resp)

	if resp.Count != 3 || len(resp.Facilities) != 3 {
		t.Fatalf("count = %d", resp.Count)
	}
	for i := 1; i < len(resp.Facilities); i++ {
		if resp.Facilities[i].Distance < resp.Facilities[i-1].Distance {
			t.Errorf("facilities not sorted at %d", i)
		}
	}
}

func TestSelectFacility(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	w := do(t, srv, http.MethodPost, "/api/v1/facilities/lot_jubilee/select", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var route geo.Route
	decode(t, w, &route)
	if route.FacilityID != "lot_jubilee" || route.To != (geo.Position{Lat: 10.5230, Lng: 76.2185}) {
		t.Errorf("route = %+v", route)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/facilities/lot_moon/select", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown facility status = %d, want 404", w.Code)
	}
}

func TestOpenDetail(t *testing.T) {
	srv := testServer(t, twoSlotBackend())

	w := do(t, srv, http.MethodPost, "/api/v1/facilities/lot_st_thomas/detail?width=400", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var frame struct {
		Facility       geo.Facility `json:"facility"`
		State          string       `json:"state"`
		ContainerWidth float64      `json:"container_width"`
	}
	decode(t, w, &frame)
	if frame.Facility.ID != "lot_st_thomas" || frame.ContainerWidth != 400 {
		t.Errorf("frame = %+v", frame)
	}
	if frame.State != "connecting" && frame.State != "live" {
		t.Errorf("state = %q", frame.State)
	}

	if w := do(t, srv, http.MethodDelete, "/api/v1/detail", ""); w.Code != http.StatusNoContent {
		t.Errorf("close status = %d, want 204", w.Code)
	}
	if w := do(t, srv, http.MethodDelete, "/api/v1/detail", ""); w.Code != http.StatusNoContent {
		t.Errorf("second close status = %d, want 204", w.Code)
	}
}

func TestOpenDetail_Errors(t *testing.T) {
	offline := &stubBackend{layoutErr: fmt.Errorf("%w: dial tcp: refused", occupancy.ErrBackendUnavailable)}

	tests := []struct {
		name    string
		backend *stubBackend
		path    string
		want    int
		code    string
	}{
		{"bad width", twoSlotBackend(), "/api/v1/facilities/lot_st_thomas/detail?width=wide", http.StatusBadRequest, ErrCodeBadRequest},
		{"negative width", twoSlotBackend(), "/api/v1/facilities/lot_st_thomas/detail?width=-1", http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown facility", twoSlotBackend(), "/api/v1/facilities/lot_moon/detail", http.StatusNotFound, ErrCodeNotFound},
		{"backend offline", offline, "/api/v1/facilities/lot_st_thomas/detail", http.StatusBadGateway, ErrCodeBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, tt.backend)
			w := do(t, srv, http.MethodPost, tt.path, "")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			var apiErr Error
			decode(t, w, &apiErr)
			if apiErr.Code != tt.code || apiErr.Status != tt.want {
				t.Errorf("error = %+v", apiErr)
			}
		})
	}
}

// ─── Metrics Tests ─────────────────────────────────────────────────

func TestMetrics(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	srv.mqtt = stubConnection(true)
	srv.telemetry = stubTelemetry{stats: influxdb.Stats{PointsWritten: 7, WriteErrors: 1}}

	w := do(t, srv, http.MethodGet, "/api/v1/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var m SystemMetrics
	decode(t, w, &m)

	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}
	if !m.MQTT.Enabled || !m.MQTT.Connected {
		t.Errorf("mqtt = %+v", m.MQTT)
	}
	want := InfluxMetrics{Enabled: true, Connected: true, PointsWritten: 7, WriteErrors: 1}
	if m.InfluxDB != want {
		t.Errorf("influxdb = %+v, want %+v", m.InfluxDB, want)
	}
	if m.Vehicle == nil || m.Vehicle.Mode != "idle" || m.Vehicle.TargetID != "lot_st_thomas" {
		t.Errorf("vehicle = %+v", m.Vehicle)
	}
}

// ─── Hub Tests ─────────────────────────────────────────────────────

func newTestClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: subs,
	}
	hub.Register(c)
	return c
}

func receive(t *testing.T, c *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}
	return WSMessage{}
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	subscribed := newTestClient(hub, ChannelVehicleMoved)
	other := newTestClient(hub, ChannelDetailChanged)

	hub.VehicleMoved(navigator.VehicleFrame{Position: geo.Position{Lat: 10.5, Lng: 76.2}})

	if msg := receive(t, subscribed); msg.EventType != ChannelVehicleMoved || msg.Type != WSTypeEvent {
		t.Errorf("message = %+v", msg)
	}
	select {
	case <-other.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SinkChannels(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub, ChannelVehicleMoved, ChannelVehicleArrived, ChannelDetailChanged, ChannelRouteSelected)

	var sink navigator.Sink = hub
	sink.Arrived(navigator.ArrivalEvent{SessionID: "s1"})
	sink.DetailChanged(navigator.DetailFrame{State: navigator.DetailOffline})
	sink.RouteSelected(geo.NewRoute(geo.Position{Lat: 10.5215, Lng: 76.2165}, geo.Facility{ID: "lot_jubilee", Position: geo.Position{Lat: 10.523, Lng: 76.2185}}))

	for _, want := range []string{ChannelVehicleArrived, ChannelDetailChanged, ChannelRouteSelected} {
		if msg := receive(t, c); msg.EventType != want {
			t.Errorf("event_type = %q, want %q", msg.EventType, want)
		}
	}
}

func TestHub_RoutePayloadCarriesGeoJSON(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub, ChannelRouteSelected)

	hub.RouteSelected(geo.NewRoute(geo.Position{Lat: 10.5215, Lng: 76.2165}, geo.Facility{ID: "lot_jubilee", Position: geo.Position{Lat: 10.523, Lng: 76.2185}}))

	data := <-c.send
	var msg struct {
		Payload struct {
			Route   geo.Route `json:"route"`
			GeoJSON struct {
				Type     string `json:"type"`
				Geometry struct {
					Type        string       `json:"type"`
					Coordinates [][2]float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"geojson"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Payload.Route.FacilityID != "lot_jubilee" {
		t.Errorf("route = %+v", msg.Payload.Route)
	}
	g := msg.Payload.GeoJSON
	if g.Type != "Feature" || g.Geometry.Type != "LineString" || len(g.Geometry.Coordinates) != 2 {
		t.Errorf("geojson = %+v", g)
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	c := newTestClient(hub)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ReplaysRetainedStateOnSubscribe(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	hub.VehicleMoved(navigator.VehicleFrame{Position: geo.Position{Lat: 10.5, Lng: 76.2}})
	hub.Arrived(navigator.ArrivalEvent{SessionID: "s1"})

	c := newTestClient(hub)
	c.handleMessage([]byte(`{"type":"subscribe","id":"1","payload":{"channels":["vehicle.moved","vehicle.arrived"]}}`))

	if msg := receive(t, c); msg.Type != WSTypeResponse || msg.ID != "1" {
		t.Fatalf("first message = %+v, want subscribe response", msg)
	}
	if msg := receive(t, c); msg.EventType != ChannelVehicleMoved {
		t.Errorf("replayed event_type = %q, want %q", msg.EventType, ChannelVehicleMoved)
	}
	select {
	case data := <-c.send:
		t.Errorf("arrival should not be replayed, got %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscribeRejectsUnknownChannels(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub)
	c.handleMessage([]byte(`{"type":"subscribe","id":"2","payload":{"channels":["detail.changed","device.state"]}}`))

	msg := receive(t, c)
	payload, _ := msg.Payload.(map[string]any)
	if fmt.Sprint(payload["subscribed"]) != "[detail.changed]" || fmt.Sprint(payload["rejected"]) != "[device.state]" {
		t.Errorf("response payload = %v", payload)
	}
	if !c.isSubscribed(ChannelDetailChanged) || c.isSubscribed("device.state") {
		t.Errorf("subscriptions = %v", c.subscriptions)
	}
}

func TestHub_SubscribeWithoutPayload(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub)
	c.handleMessage([]byte(`{"type":"subscribe","id":"3"}`))

	if msg := receive(t, c); msg.Type != WSTypeError || msg.ID != "3" {
		t.Errorf("message = %+v, want error", msg)
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

// connectWebSocket serves the router over a real listener and dials /ws.
func connectWebSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func subscribe(t *testing.T, ws *websocket.Conn, channels ...string) {
	t.Helper()
	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: channels},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}
}

func TestWebSocket_StreamsVehicleFrames(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	ws := connectWebSocket(t, srv)
	subscribe(t, ws, ChannelVehicleMoved)

	do(t, srv, http.MethodPost, "/api/v1/vehicle/keys", `{"key":"ArrowUp","pressed":true}`)
	defer do(t, srv, http.MethodPost, "/api/v1/vehicle/keys", `{"key":"ArrowUp","pressed":false}`)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type      string `json:"type"`
		EventType string `json:"event_type"`
		Payload   struct {
			Mode    string  `json:"mode"`
			Heading float64 `json:"heading"`
		} `json:"payload"`
	}
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msg.Type != WSTypeEvent || msg.EventType != ChannelVehicleMoved {
		t.Errorf("message = %+v", msg)
	}
	if msg.Payload.Mode != "manual" || msg.Payload.Heading != 0 {
		t.Errorf("payload = %+v", msg.Payload)
	}
}

func TestWebSocket_StreamsDetailFrames(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	ws := connectWebSocket(t, srv)
	subscribe(t, ws, ChannelDetailChanged)

	if w := do(t, srv, http.MethodPost, "/api/v1/facilities/lot_st_thomas/detail", ""); w.Code != http.StatusOK {
		t.Fatalf("open detail status = %d", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ws.SetReadDeadline(deadline)
		var msg struct {
			Payload struct {
				State   string             `json:"state"`
				Message string             `json:"message"`
				Summary *occupancy.Summary `json:"summary"`
				Slots   []occupancy.Rect   `json:"slots"`
			} `json:"payload"`
		}
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if msg.Payload.State != "live" {
			continue
		}
		if msg.Payload.Message != "1 Slots Available" || msg.Payload.Summary == nil || msg.Payload.Summary.Free != 1 {
			t.Errorf("live frame = %+v", msg.Payload)
		}
		if len(msg.Payload.Slots) != 2 || !msg.Payload.Slots[0].Occupied || msg.Payload.Slots[1].Occupied {
			t.Errorf("slots = %+v", msg.Payload.Slots)
		}
		return
	}
	t.Fatal("no live detail frame")
}

func TestWebSocket_Ping(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	ws := connectWebSocket(t, srv)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if resp.Type != WSTypePong || resp.ID != "ping-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWebSocket_InvalidMessages(t *testing.T) {
	srv := testServer(t, twoSlotBackend())
	ws := connectWebSocket(t, srv)

	for _, raw := range []string{"not json", `{"type":"unknown_type","id":"x"}`} {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write %q: %v", raw, err)
		}
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var resp WSMessage
		if err := ws.ReadJSON(&resp); err != nil {
			t.Fatalf("read error response: %v", err)
		}
		if resp.Type != WSTypeError {
			t.Errorf("response to %q = %s, want error", raw, resp.Type)
		}
	}
}
