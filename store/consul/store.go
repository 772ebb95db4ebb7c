package consul

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
)

// MaxPayloadSize is slightly below the default 512KB Consul KV value limit.
const MaxPayloadSize = 500 * 1024

// ConsulStore keeps the coordination tree in HashiCorp Consul KV.
//
// Architecture:
// - Every node is an explicit KV key, so empty placeholder nodes exist on their own
// - The key of "/a/b" is "<prefix>a/b"; the root node is the prefix itself and always exists
// - Direct children are listed with Keys("<key>/", "/"), which folds deeper keys into "<child>/"
// - Creates use check-and-set with index 0 so concurrent creators cannot overwrite each other
type ConsulStore struct {
	client *api.Client
	kv     *api.KV

	config *ConsulStoreConfig
}

// ConsulStoreConfig contains configuration options for the Consul store
type ConsulStoreConfig struct {
	// Address of the Consul agent (default: "127.0.0.1:8500")
	Address string

	// Scheme used to reach the agent (default: "http")
	Scheme string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Namespace for Consul Enterprise (optional)
	Namespace string

	// Prefix for all keys in Consul KV (default: none)
	Prefix string
}

// NewConsulStore creates a new Consul-backed store.
func NewConsulStore(config *ConsulStoreConfig) (*ConsulStore, error) {
	if config == nil {
		config = &ConsulStoreConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	prefix := strings.Trim(config.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	config.Prefix = prefix

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Scheme != "" {
		clientConfig.Scheme = config.Scheme
	}
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulStore{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this store.
func (*ConsulStore) Name() string {
	return "consul"
}

// Ping asks the agent for the current raft leader.
func (cs *ConsulStore) Ping(ctx context.Context) error {
	leader, err := cs.client.Status().LeaderWithQueryOptions(cs.queryOptions(ctx))
	if err != nil {
		return cs.wrap(err)
	}

	if leader == "" {
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, errors.New("no cluster leader"), cs.config.Address)
	}

	return nil
}

// Close is a no-op since the Consul client is stateless.
func (cs *ConsulStore) Close() error {
	return nil
}

// buildKey constructs the Consul KV key for a node path.
func (cs *ConsulStore) buildKey(path string) string {
	if path == data.RootPath {
		return cs.config.Prefix
	}

	return cs.config.Prefix + strings.TrimPrefix(path, "/")
}

// childPrefix returns the key prefix shared by all children of path.
func (cs *ConsulStore) childPrefix(path string) string {
	if path == data.RootPath {
		return cs.config.Prefix
	}

	return cs.buildKey(path) + "/"
}

func (cs *ConsulStore) queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{RequireConsistent: true}).WithContext(ctx)
}

func (cs *ConsulStore) writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}

// wrap maps transport failures onto data.ErrConnectionLoss.
func (cs *ConsulStore) wrap(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, cs.config.Address)
	}

	// Agents answer 5xx while they have no leader or are shutting down
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.Code >= 500 {
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, cs.config.Address)
	}

	return err
}

// Dialer opens a Consul session per dial. The host part of the address
// selects the agent; config supplies token, datacenter and key prefix.
func Dialer(config ConsulStoreConfig) store.Dialer {
	return store.DialerFunc(func(ctx context.Context, address string) (store.Store, error) {
		addr, err := store.ParseAddress(address)
		if err != nil {
			return nil, err
		}

		cfg := config
		if hosts := addr.Hosts(); len(hosts) > 0 {
			cfg.Address = hosts[0]
		}

		s, err := NewConsulStore(&cfg)
		if err != nil {
			return nil, err
		}

		if err := s.Ping(ctx); err != nil {
			return nil, err
		}

		return store.Chroot(s, addr.Chroot), nil
	})
}
