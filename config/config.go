package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mwantia/coordtree/log"
	"github.com/zclconf/go-cty/cty"
)

// Config is the fixture file read by the command line tool.
//
//	timeout      = "10s"
//	grace_period = "2s"
//
//	log {
//	  level = "info"
//	}
//
//	server "embedded" {
//	  chroot   = "/solr"
//	  data_dir = "./data/zookeeper/server1/data"
//	}
//
//	source "local" {
//	  home = "./solr"
//	}
//
//	layout {
//	  config_set = "conf1"
//	  collection "collection1" {}
//	}
type Config struct {
	Timeout     string `hcl:"timeout,optional"`
	GracePeriod string `hcl:"grace_period,optional"`

	Log    *LogConfig    `hcl:"log,block"`
	Server *ServerConfig `hcl:"server,block"`
	Source *SourceConfig `hcl:"source,block"`
	Layout *LayoutConfig `hcl:"layout,block"`

	timeout     time.Duration
	gracePeriod time.Duration
}

type LogConfig struct {
	Level      string `hcl:"level,optional"`
	File       string `hcl:"file,optional"`
	JSON       bool   `hcl:"json,optional"`
	NoColor    bool   `hcl:"no_color,optional"`
	NoTerminal bool   `hcl:"no_terminal,optional"`
}

// ServerConfig selects the coordination store. The label is one of
// "embedded", "zookeeper", "consul", "sqlite", "badger" or "postgres".
type ServerConfig struct {
	Type   string  `hcl:"type,label"`
	Chroot *string `hcl:"chroot,optional"`

	// embedded
	DataDir string `hcl:"data_dir,optional"`

	// zookeeper and consul
	Address string `hcl:"address,optional"`

	// zookeeper
	SessionTimeout string `hcl:"session_timeout,optional"`
	sessionTimeout time.Duration

	// consul
	Scheme     string `hcl:"scheme,optional"`
	Token      string `hcl:"token,optional"`
	Datacenter string `hcl:"datacenter,optional"`
	Namespace  string `hcl:"namespace,optional"`
	Prefix     string `hcl:"prefix,optional"`

	// sqlite and badger
	Path string `hcl:"path,optional"`

	// postgres
	Connection string `hcl:"connection,optional"`
}

// SourceConfig selects where configuration artifacts are read from. The
// label is one of "local" or "s3".
type SourceConfig struct {
	Type       string `hcl:"type,label"`
	Collection string `hcl:"collection,optional"`

	// local
	Home string `hcl:"home,optional"`

	// s3
	Endpoint  string `hcl:"endpoint,optional"`
	Bucket    string `hcl:"bucket,optional"`
	Prefix    string `hcl:"prefix,optional"`
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`
	UseSSL    bool   `hcl:"use_ssl,optional"`
}

type LayoutConfig struct {
	Root        *string             `hcl:"root,optional"`
	ConfigSet   string              `hcl:"config_set,optional"`
	ConfigFile  string              `hcl:"config_file,optional"`
	SchemaFile  string              `hcl:"schema_file,optional"`
	Files       []string            `hcl:"files,optional"`
	Collections []*CollectionConfig `hcl:"collection,block"`
}

type CollectionConfig struct {
	Name       string    `hcl:"name,label"`
	ConfigName string    `hcl:"config_name,optional"`
	Properties cty.Value `hcl:"properties,optional"`

	properties map[string]any
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	// Defaults are always valid
	_ = c.Validate()

	return c
}

// Load reads and parses the HCL file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(path, src)
}

// Parse decodes src, applies defaults and validates the result.
func Parse(filename string, src []byte) (*Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	c := &Config{}
	if diags := gohcl.DecodeBody(file.Body, nil, c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.GracePeriod == "" {
		c.GracePeriod = "2s"
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = log.Info.String()
	}

	if c.Server == nil {
		c.Server = &ServerConfig{Type: "embedded"}
	}
	if c.Server.Chroot == nil {
		chroot := "/solr"
		c.Server.Chroot = &chroot
	}

	if c.Source == nil {
		c.Source = &SourceConfig{Type: "local", Home: "."}
	}
	if c.Source.Collection == "" {
		c.Source.Collection = "collection1"
	}

	if c.Layout == nil {
		c.Layout = &LayoutConfig{}
	}
	if c.Layout.Root == nil {
		root := *c.Server.Chroot
		c.Layout.Root = &root
	}
}

func (c *Config) Validate() error {
	var err error

	if c.timeout, err = time.ParseDuration(c.Timeout); err != nil || c.timeout < 0 {
		return fmt.Errorf("invalid timeout '%s'", c.Timeout)
	}
	if c.gracePeriod, err = time.ParseDuration(c.GracePeriod); err != nil || c.gracePeriod < 0 {
		return fmt.Errorf("invalid grace period '%s'", c.GracePeriod)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Server.Type {
	case "embedded":
	case "zookeeper":
		if c.Server.Address == "" {
			return fmt.Errorf("server 'zookeeper' requires an address")
		}
		if c.Server.SessionTimeout != "" {
			if c.Server.sessionTimeout, err = time.ParseDuration(c.Server.SessionTimeout); err != nil || c.Server.sessionTimeout <= 0 {
				return fmt.Errorf("invalid session timeout '%s'", c.Server.SessionTimeout)
			}
		}
	case "consul":
	case "sqlite":
		if c.Server.Path == "" {
			return fmt.Errorf("server 'sqlite' requires a path")
		}
	case "badger":
		if c.Server.Path == "" {
			return fmt.Errorf("server 'badger' requires a path")
		}
	case "postgres":
		if c.Server.Connection == "" {
			return fmt.Errorf("server 'postgres' requires a connection")
		}
	default:
		return fmt.Errorf("unknown server type '%s'", c.Server.Type)
	}

	switch c.Source.Type {
	case "local":
		if c.Source.Home == "" {
			return fmt.Errorf("source 'local' requires a home")
		}
	case "s3":
		if c.Source.Endpoint == "" || c.Source.Bucket == "" {
			return fmt.Errorf("source 's3' requires an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown source type '%s'", c.Source.Type)
	}

	// Collections are created under the layout root but read through the
	// chroot of the client address, so both must name the same node.
	if root, chroot := namespaceRoot(*c.Layout.Root), namespaceRoot(*c.Server.Chroot); root != chroot {
		return fmt.Errorf("layout root '%s' does not match server chroot '%s'", root, chroot)
	}

	for _, collection := range c.Layout.Collections {
		if collection.properties, err = decodeProperties(collection.Properties); err != nil {
			return fmt.Errorf("collection '%s': %w", collection.Name, err)
		}
	}

	return c.Layout.Build().Validate()
}

func namespaceRoot(path string) string {
	if path == "/" {
		return ""
	}
	return path
}

// TimeoutDuration returns the validated per-call timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return c.timeout
}

// GracePeriodDuration returns the validated drain bound.
func (c *Config) GracePeriodDuration() time.Duration {
	return c.gracePeriod
}
