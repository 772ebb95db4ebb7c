package config

import (
	"context"
	"fmt"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/server"
	"github.com/mwantia/coordtree/server/embedded"
	"github.com/mwantia/coordtree/server/external"
	"github.com/mwantia/coordtree/source"
	"github.com/mwantia/coordtree/source/local"
	"github.com/mwantia/coordtree/source/s3"
	"github.com/mwantia/coordtree/store"
	"github.com/mwantia/coordtree/store/badger"
	"github.com/mwantia/coordtree/store/consul"
	"github.com/mwantia/coordtree/store/postgres"
	"github.com/mwantia/coordtree/store/sqlite"
	"github.com/mwantia/coordtree/store/zookeeper"
)

// Logger creates the root logger described by the log block.
func (c *LogConfig) Logger(name string) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger(name, level, c.File, c.NoTerminal)
	logger.JSON = c.JSON
	logger.NoColor = c.NoColor

	return logger, nil
}

// Build creates the server and the dialer used to reach it.
func (c *ServerConfig) Build(logger *log.Logger) (server.Server, store.Dialer, error) {
	chroot := *c.Chroot

	if c.Type == "embedded" {
		es, err := embedded.NewEmbeddedServer(
			embedded.WithChroot(chroot),
			embedded.WithDataDir(c.DataDir),
			embedded.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}

		return es, es, nil
	}

	host := "localhost"
	var dialer store.Dialer

	switch c.Type {
	case "consul":
		if c.Address != "" {
			host = c.Address
		} else {
			host = "127.0.0.1:8500"
		}
		dialer = consul.Dialer(consul.ConsulStoreConfig{
			Scheme:     c.Scheme,
			Token:      c.Token,
			Datacenter: c.Datacenter,
			Namespace:  c.Namespace,
			Prefix:     c.Prefix,
		})
	case "zookeeper":
		host = c.Address
		dialer = zookeeper.Dialer(zookeeper.ZooKeeperStoreConfig{
			SessionTimeout: c.sessionTimeout,
			Logger:         logger,
		})
	case "sqlite":
		dialer = sqlite.Dialer(c.Path)
	case "badger":
		dialer = badger.Dialer(badger.BadgerStoreConfig{
			Dir:    c.Path,
			Logger: logger,
		})
	case "postgres":
		dialer = postgres.Dialer(c.Connection)
	default:
		return nil, nil, fmt.Errorf("unknown server type '%s'", c.Type)
	}

	srv, err := external.NewExternalServer(c.Type, host, dialer,
		external.WithChroot(chroot),
		external.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	return srv, srv, nil
}

// Build creates the resolver for configuration artifacts.
func (c *SourceConfig) Build(ctx context.Context) (source.Resolver, error) {
	switch c.Type {
	case "local":
		return local.NewLocalResolver(c.Home, c.Collection), nil
	case "s3":
		prefix := c.Prefix
		if prefix == "" {
			prefix = c.Collection + "/conf"
		}

		r, err := s3.NewS3Resolver(s3.S3ResolverConfig{
			Endpoint:  c.Endpoint,
			Bucket:    c.Bucket,
			Prefix:    prefix,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			UseSSL:    c.UseSSL,
		})
		if err != nil {
			return nil, err
		}

		if err := r.Open(ctx); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown source type '%s'", c.Type)
	}
}

// Build returns the layout with every unset field taken from
// coordtree.DefaultLayout.
func (c *LayoutConfig) Build() coordtree.Layout {
	layout := coordtree.DefaultLayout()

	if c.Root != nil {
		layout.Root = *c.Root
	}
	if c.ConfigSet != "" {
		layout.ConfigSet = c.ConfigSet
		for idx := range layout.Collections {
			layout.Collections[idx].ConfigName = c.ConfigSet
		}
	}
	if c.ConfigFile != "" {
		layout.ConfigFile = c.ConfigFile
	}
	if c.SchemaFile != "" {
		layout.SchemaFile = c.SchemaFile
	}
	if len(c.Files) > 0 {
		layout.Files = c.Files
	}

	if len(c.Collections) > 0 {
		layout.Collections = make([]coordtree.Collection, 0, len(c.Collections))
		for _, collection := range c.Collections {
			configName := collection.ConfigName
			if configName == "" {
				configName = layout.ConfigSet
			}

			layout.Collections = append(layout.Collections, coordtree.Collection{
				Name:       collection.Name,
				ConfigName: configName,
				Properties: collection.properties,
			})
		}
	}

	return layout
}

// Options returns the coordtree options described by the whole file.
func (c *Config) Options(ctx context.Context, logger *log.Logger) ([]coordtree.Option, error) {
	resolver, err := c.Source.Build(ctx)
	if err != nil {
		return nil, err
	}

	return []coordtree.Option{
		coordtree.WithLayout(c.Layout.Build()),
		coordtree.WithResolver(resolver),
		coordtree.WithLogger(logger),
		coordtree.WithTimeout(c.timeout),
		coordtree.WithGracePeriod(c.gracePeriod),
	}, nil
}
