package external

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/store"
)

// ExternalServer represents a coordination store that runs outside this
// process, such as a Consul agent or a shared SQL database. Start only
// verifies that the store answers; Stop marks the handle as released and
// leaves the store itself running.
type ExternalServer struct {
	mu  sync.Mutex
	log *log.Logger

	name    string
	host    string
	chroot  string
	dialer  store.Dialer
	running bool
}

func NewExternalServer(name, host string, dialer store.Dialer, opts ...ExternalServerOption) (*ExternalServer, error) {
	options := newDefaultExternalServerOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if dialer == nil {
		return nil, fmt.Errorf("external server '%s' requires a dialer", name)
	}

	addr, err := store.ParseAddress(host)
	if err != nil {
		return nil, err
	}
	if addr.Chroot != "" {
		return nil, fmt.Errorf("%w: host address '%s' must not carry a chroot", data.ErrInvalidPath, host)
	}

	if options.Chroot != "" {
		if err := data.ValidatePath(options.Chroot); err != nil {
			return nil, err
		}
	}

	return &ExternalServer{
		log:    options.Logger.Named(name),
		name:   name,
		host:   addr.Host,
		chroot: options.Chroot,
		dialer: dialer,
	}, nil
}

// Name returns the identifier name defined for this server.
func (s *ExternalServer) Name() string {
	return s.name
}

// Start checks that the store is reachable by opening a session and
// querying the root node.
func (s *ExternalServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return data.ErrServerRunning
	}

	if err := s.ping(ctx); err != nil {
		return err
	}

	s.running = true
	s.log.Info("connected to external store at '%s'", s.host)
	return nil
}

func (s *ExternalServer) ping(ctx context.Context) error {
	session, err := s.dialer.Dial(ctx, s.host)
	if err != nil {
		return err
	}
	defer session.Close()

	if _, err := session.Exists(ctx, data.RootPath); err != nil {
		return fmt.Errorf("failed to query root of '%s': %w", s.host, err)
	}

	return nil
}

// ClientAddress returns the host address followed by the chroot.
func (s *ExternalServer) ClientAddress() string {
	return s.host + s.chroot
}

// HostOnlyAddress returns the configured host address.
func (s *ExternalServer) HostOnlyAddress() string {
	return s.host
}

// Stop releases the handle. The external store keeps running.
func (s *ExternalServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return data.ErrServerNotRunning
	}

	s.running = false
	s.log.Info("released external store at '%s'", s.host)
	return nil
}

// Dial opens a session through the configured dialer while the handle is started.
func (s *ExternalServer) Dial(ctx context.Context, address string) (store.Store, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return nil, fmt.Errorf("%w: %w", data.ErrConnectionLoss, data.ErrServerNotRunning)
	}

	return s.dialer.Dial(ctx, address)
}
