package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/store"
)

// MaxPayloadSize matches the default jute.maxbuffer of a ZooKeeper server.
const MaxPayloadSize = 1024 * 1024

// ZooKeeperStore is a session against a ZooKeeper ensemble.
// Paths map one to one onto znodes; ephemeral nodes are owned by the session
// and disappear when Close is called.
type ZooKeeperStore struct {
	conn    *zk.Conn
	servers []string
	acl     []zk.ACL
}

// ZooKeeperStoreConfig contains configuration options for the ZooKeeper store
type ZooKeeperStoreConfig struct {
	// SessionTimeout negotiated with the ensemble (default: 10s)
	SessionTimeout time.Duration

	// Logger receives the client's connection messages (optional)
	Logger *log.Logger
}

// zkLogger adapts the leveled logger to the Printf sink of the zk client.
type zkLogger struct {
	log *log.Logger
}

func (l zkLogger) Printf(format string, args ...any) {
	l.log.Debug(format, args...)
}

// Connect opens a session against servers and waits until the ensemble
// has accepted it or ctx is done.
func Connect(ctx context.Context, servers []string, config ZooKeeperStoreConfig) (*ZooKeeperStore, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: no zookeeper servers given", data.ErrInvalidPath)
	}

	if config.SessionTimeout <= 0 {
		config.SessionTimeout = 10 * time.Second
	}

	logging := zk.WithLogInfo(false)
	if config.Logger != nil {
		logging = zk.WithLogger(zkLogger{log: config.Logger.Named("zk")})
	}

	conn, events, err := zk.Connect(servers, config.SessionTimeout, logging)
	if err != nil {
		return nil, dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, servers[0])
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return nil, dataerrors.ConnectionLoss(data.ErrConnectionLoss, ctx.Err(), servers[0])
		case ev, ok := <-events:
			if !ok {
				return nil, dataerrors.ConnectionLoss(data.ErrConnectionLoss, zk.ErrClosing, servers[0])
			}
			if ev.State == zk.StateHasSession {
				return &ZooKeeperStore{
					conn:    conn,
					servers: servers,
					acl:     zk.WorldACL(zk.PermAll),
				}, nil
			}
			if ev.State == zk.StateAuthFailed || ev.State == zk.StateExpired {
				conn.Close()
				return nil, dataerrors.ConnectionLoss(data.ErrConnectionLoss, fmt.Errorf("session %s", ev.State), servers[0])
			}
		}
	}
}

// Name returns the identifier name defined for this store.
func (*ZooKeeperStore) Name() string {
	return "zookeeper"
}

func (zs *ZooKeeperStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return zs.wrap(err, path)
	}

	if len(payload) > MaxPayloadSize {
		return dataerrors.PayloadTooLarge(data.ErrPayloadTooLarge, path, len(payload), MaxPayloadSize)
	}

	var flags int32
	if mode == store.Ephemeral {
		flags = zk.FlagEphemeral
	}

	if _, err := zs.conn.Create(path, payload, flags, zs.acl); err != nil {
		if errors.Is(err, zk.ErrNoNode) {
			return dataerrors.NoNode(data.ErrNoNode, data.ParentPath(path))
		}
		return zs.wrap(err, path)
	}

	return nil
}

func (zs *ZooKeeperStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, zs.wrap(err, path)
	}

	payload, _, err := zs.conn.Get(path)
	if err != nil {
		return nil, zs.wrap(err, path)
	}

	return payload, nil
}

func (zs *ZooKeeperStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return zs.wrap(err, path)
	}

	if len(payload) > MaxPayloadSize {
		return dataerrors.PayloadTooLarge(data.ErrPayloadTooLarge, path, len(payload), MaxPayloadSize)
	}

	// Version -1 matches any version
	if _, err := zs.conn.Set(path, payload, -1); err != nil {
		return zs.wrap(err, path)
	}

	return nil
}

func (zs *ZooKeeperStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := data.ValidatePath(path); err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return false, zs.wrap(err, path)
	}

	exists, _, err := zs.conn.Exists(path)
	if err != nil {
		return false, zs.wrap(err, path)
	}

	return exists, nil
}

func (zs *ZooKeeperStore) Children(ctx context.Context, path string) ([]string, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, zs.wrap(err, path)
	}

	children, _, err := zs.conn.Children(path)
	if err != nil {
		return nil, zs.wrap(err, path)
	}

	// The root of an ensemble carries the reserved /zookeeper subtree
	if path == data.RootPath {
		children = slices.DeleteFunc(children, func(name string) bool {
			return name == "zookeeper"
		})
	}

	slices.Sort(children)
	return children, nil
}

func (zs *ZooKeeperStore) Delete(ctx context.Context, path string) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return dataerrors.Unsupported(data.ErrUnsupported, zs.Name(), "deleting the root node")
	}

	if err := ctx.Err(); err != nil {
		return zs.wrap(err, path)
	}

	if err := zs.conn.Delete(path, -1); err != nil {
		if errors.Is(err, zk.ErrNotEmpty) {
			children, _, _ := zs.conn.Children(path)
			return dataerrors.NotEmpty(data.ErrNotEmpty, path, len(children))
		}
		return zs.wrap(err, path)
	}

	return nil
}

// Close ends the session; the ensemble removes its ephemeral nodes.
func (zs *ZooKeeperStore) Close() error {
	zs.conn.Close()
	return nil
}

// wrap maps client errors onto the data sentinels.
func (zs *ZooKeeperStore) wrap(err error, path string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, zk.ErrNodeExists):
		return dataerrors.NodeExists(data.ErrNodeExists, path)
	case errors.Is(err, zk.ErrNoNode):
		return dataerrors.NoNode(data.ErrNoNode, path)
	case errors.Is(err, zk.ErrBadArguments), errors.Is(err, zk.ErrInvalidPath):
		return fmt.Errorf("%w: %v", data.ErrInvalidPath, err)
	case errors.Is(err, zk.ErrConnectionClosed), errors.Is(err, zk.ErrSessionExpired),
		errors.Is(err, zk.ErrNoServer), errors.Is(err, zk.ErrClosing),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, zs.servers[0])
	default:
		return err
	}
}

// Dialer opens a ZooKeeper session per dial. The comma separated hosts of
// the address form the ensemble; its chroot is applied client side.
func Dialer(config ZooKeeperStoreConfig) store.Dialer {
	return store.DialerFunc(func(ctx context.Context, address string) (store.Store, error) {
		addr, err := store.ParseAddress(address)
		if err != nil {
			return nil, err
		}

		s, err := Connect(ctx, addr.Hosts(), config)
		if err != nil {
			return nil, err
		}

		return store.Chroot(s, addr.Chroot), nil
	})
}
