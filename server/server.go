package server

import "context"

// Server controls the lifecycle of a coordination store process.
type Server interface {
	// Name returns the identifier name defined for this server.
	Name() string
	// Start brings the server up; it fails with data.ErrServerRunning when already started.
	Start(ctx context.Context) error
	// ClientAddress is the endpoint used for all path operations, including any chroot suffix.
	ClientAddress() string
	// HostOnlyAddress is the endpoint without the chroot suffix.
	HostOnlyAddress() string
	// Stop shuts the server down; open client sessions start failing.
	Stop(ctx context.Context) error
}

// Drainer is implemented by servers that can tell when every client
// session opened against them has been released.
type Drainer interface {
	// Drained is closed once the server is stopped and no session remains open.
	Drained() <-chan struct{}
}
