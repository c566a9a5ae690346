// Package navigator owns the simulated vehicle and the facility detail view.
//
// A Navigator runs one event loop goroutine (Run). Every mutation happens on
// that goroutine: animation frames for the manual controller, auto-drive
// ticks, caller commands, and occupancy poll results. Callers talk to it
// through blocking methods that post a closure to the loop and wait for the
// reply, so no vehicle state is ever shared between goroutines.
//
// Network I/O never runs on the loop. The slot layout fetch and the status
// poller run on their own goroutines and post results back tagged with the
// detail view's generation; a result whose generation no longer matches the
// open view is dropped.
//
// Every visible change is pushed to a Sink. The WebSocket hub, the MQTT
// publisher and the InfluxDB writer all implement it, and MultiSink fans
// out to several. Sink methods are called on the loop and must not block.
package navigator
