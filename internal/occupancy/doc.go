// Package occupancy talks to the slot-detection backend and turns its
// output into something a client can draw.
//
// The backend exposes two endpoints:
//
//	GET /api/config  slot layout in an 800px-wide reference frame (fetched once)
//	GET /api/status  {"status_string": "10C0..."}, one character per slot
//
// A Layout is fetched once per detail view. A Poller then fetches the status
// on a fixed interval, DecodeStatus turns it into per-slot states, and
// Render scales the layout to the caller's container width.
//
// Poll failures never stop the poller; the previous result stays valid
// until a new one arrives.
package occupancy
