package coordtree

import (
	"context"
	"fmt"
	"time"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/metrics"
	"github.com/mwantia/coordtree/store"
)

// CollectionsRoot is the parent of every collection node.
const CollectionsRoot = "/collections"

// Collection describes one collection node and the descriptor written to it.
type Collection struct {
	Name       string
	ConfigName string
	// Properties are merged into the descriptor next to the config name.
	Properties map[string]any
}

// Descriptor builds the payload stored on the collection node.
func (c Collection) Descriptor() data.CollectionDescriptor {
	descriptor := data.NewCollectionDescriptor(c.ConfigName)
	for key, value := range c.Properties {
		if key == data.DescriptorConfigName {
			continue
		}
		descriptor[key] = value
	}

	return descriptor
}

// Layout is the shape of the tree built by a Bootstrapper.
type Layout struct {
	// Root is the namespace root created through the host-only address.
	// An empty root or "/" skips that step.
	Root        string
	Collections []Collection
	ConfigSet   string
	ConfigFile  string
	SchemaFile  string
	Files       []string
}

// DefaultLayout returns the layout of a two collection test cluster sharing
// the "conf1" configuration set below "/solr".
func DefaultLayout() Layout {
	return Layout{
		Root: "/solr",
		Collections: []Collection{
			{Name: "collection1", ConfigName: "conf1"},
			{Name: "control_collection", ConfigName: "conf1"},
		},
		ConfigSet:  "conf1",
		ConfigFile: "solrconfig.xml",
		SchemaFile: "schema.xml",
		Files:      append([]string{}, DefaultConfigFiles...),
	}
}

func (l Layout) Validate() error {
	if l.Root != "" {
		if err := data.ValidatePath(l.Root); err != nil {
			return err
		}
	}

	for _, collection := range l.Collections {
		if err := data.ValidateName(collection.Name); err != nil {
			return fmt.Errorf("invalid collection: %w", err)
		}
		if err := data.ValidateName(collection.ConfigName); err != nil {
			return fmt.Errorf("invalid config name of collection '%s': %w", collection.Name, err)
		}
	}

	if err := data.ValidateName(l.ConfigSet); err != nil {
		return fmt.Errorf("invalid config set: %w", err)
	}

	for _, name := range l.CandidateFiles() {
		if err := data.ValidateName(name); err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}
	}

	return nil
}

// CandidateFiles returns the config and schema file followed by the
// remaining files, each name once.
func (l Layout) CandidateFiles() []string {
	seen := make(map[string]struct{})
	files := make([]string, 0, len(l.Files)+2)

	for _, name := range append([]string{l.ConfigFile, l.SchemaFile}, l.Files...) {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		files = append(files, name)
	}

	return files
}

// Bootstrapper builds the namespace root, the collection nodes and the
// configuration set of a Layout.
type Bootstrapper struct {
	log      *log.Logger
	dialer   store.Dialer
	layout   Layout
	uploader *Uploader
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewBootstrapper(dialer store.Dialer, opts ...Option) (*Bootstrapper, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return newBootstrapper(dialer, options)
}

func newBootstrapper(dialer store.Dialer, options *Options) (*Bootstrapper, error) {
	if dialer == nil {
		return nil, fmt.Errorf("bootstrapper requires a dialer")
	}
	if options.Resolver == nil {
		return nil, fmt.Errorf("bootstrapper requires a config resolver")
	}

	if err := options.Layout.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger.Named("bootstrap")
	uploader := NewUploader(options.Resolver, logger.Named("uploader"))
	uploader.metrics = options.Metrics

	return &Bootstrapper{
		log:      logger,
		dialer:   dialer,
		layout:   options.Layout,
		uploader: uploader,
		metrics:  options.Metrics,
		timeout:  options.Timeout,
	}, nil
}

// Layout returns the layout this bootstrapper builds.
func (b *Bootstrapper) Layout() Layout {
	return b.layout
}

// Bootstrap builds the tree. The namespace root is created through
// hostAddress, everything else through clientAddress. The first failing step
// aborts the sequence and is returned as *StepError; running Bootstrap again
// is safe.
func (b *Bootstrapper) Bootstrap(ctx context.Context, hostAddress, clientAddress string) error {
	if err := b.MakeRootNode(ctx, hostAddress); err != nil {
		return err
	}

	return withSession(ctx, b.dialer, clientAddress, b.timeout, func(s store.Store) error {
		for _, collection := range b.layout.Collections {
			if err := b.createCollection(ctx, s, collection); err != nil {
				return err
			}
		}

		start := time.Now()
		report, err := b.uploader.UploadConfigSet(ctx, s, b.layout.ConfigSet, b.layout.CandidateFiles())
		b.metrics.RecordStep("configs", start, err)
		if err != nil {
			return &StepError{Step: "configs", Path: data.JoinPath(ConfigsRoot, b.layout.ConfigSet), Err: err}
		}

		b.log.Info("bootstrapped %d collections and %d config files on '%s'",
			len(b.layout.Collections), len(report.Uploaded()), clientAddress)
		return nil
	})
}

// MakeRootNode creates the namespace root through hostAddress.
func (b *Bootstrapper) MakeRootNode(ctx context.Context, hostAddress string) error {
	if b.layout.Root == "" || b.layout.Root == data.RootPath {
		return nil
	}

	start := time.Now()
	return withSession(ctx, b.dialer, hostAddress, b.timeout, func(s store.Store) error {
		result, err := EnsurePath(ctx, s, b.layout.Root, nil)
		b.metrics.RecordStep("root", start, err)
		if err != nil {
			return &StepError{Step: "root", Path: b.layout.Root, Err: err}
		}

		b.metrics.RecordNode(result.String())
		b.log.Debug("namespace root '%s' %s", b.layout.Root, result)
		return nil
	})
}

func (b *Bootstrapper) createCollection(ctx context.Context, s store.Store, collection Collection) error {
	path := data.JoinPath(CollectionsRoot, collection.Name)

	start := time.Now()
	payload, err := collection.Descriptor().Marshal()
	if err != nil {
		b.metrics.RecordStep("collection", start, err)
		return &StepError{Step: "collection", Path: path, Err: err}
	}

	result, err := EnsurePath(ctx, s, path, payload)
	b.metrics.RecordStep("collection", start, err)
	if err != nil {
		return &StepError{Step: "collection", Path: path, Err: err}
	}
	b.metrics.RecordNode(result.String())
	b.log.Debug("collection '%s' %s", path, result)

	start = time.Now()
	shards := data.JoinPath(path, "shards")
	result, err = EnsurePath(ctx, s, shards, nil)
	b.metrics.RecordStep("shards", start, err)
	if err != nil {
		return &StepError{Step: "shards", Path: shards, Err: err}
	}
	b.metrics.RecordNode(result.String())

	return nil
}
