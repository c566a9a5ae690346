package navigator

import "errors"

var (
	// ErrNavigatorStopped is returned by every command once Run has returned.
	ErrNavigatorStopped = errors.New("navigator: stopped")

	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("navigator: already running")

	// ErrNoActiveSession is returned by CancelAutoDrive when nothing is driving.
	ErrNoActiveSession = errors.New("navigator: no active auto-drive session")

	// ErrDetailClosed is returned by OpenDetail when the view was closed or
	// replaced before its layout finished loading.
	ErrDetailClosed = errors.New("navigator: detail view closed")

	// ErrInvalidCommand is returned for malformed MQTT command messages.
	ErrInvalidCommand = errors.New("navigator: invalid command")
)
