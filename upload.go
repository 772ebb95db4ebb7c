package coordtree

import (
	"context"
	"fmt"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/metrics"
	"github.com/mwantia/coordtree/source"
	"github.com/mwantia/coordtree/store"
)

// ConfigsRoot is the parent of every uploaded configuration set.
const ConfigsRoot = "/configs"

// DefaultConfigFiles are the recognized artifacts of a configuration set.
var DefaultConfigFiles = []string{
	"solrconfig.xml",
	"schema.xml",
	"stopwords.txt",
	"protwords.txt",
	"currency.xml",
	"open-exchange-rates.json",
	"mapping-ISOLatin1Accent.txt",
	"old_synonyms.txt",
	"synonyms.txt",
}

type UploadResult int

const (
	UploadFailed UploadResult = iota
	UploadSkipped
	UploadCreated
	UploadUpdated
)

func (r UploadResult) String() string {
	switch r {
	case UploadSkipped:
		return "skipped"
	case UploadCreated:
		return "created"
	case UploadUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// UploadReport lists the outcome per file of an UploadConfigSet call.
type UploadReport struct {
	ConfigSet string
	Created   []string
	Updated   []string
	Skipped   []string
}

// Uploaded returns created and updated files in upload order.
func (r *UploadReport) Uploaded() []string {
	return append(append([]string{}, r.Created...), r.Updated...)
}

func (r *UploadReport) add(name string, result UploadResult) {
	switch result {
	case UploadCreated:
		r.Created = append(r.Created, name)
	case UploadUpdated:
		r.Updated = append(r.Updated, name)
	case UploadSkipped:
		r.Skipped = append(r.Skipped, name)
	}
}

// Uploader copies configuration artifacts from a resolver into
// "/configs/<set>/<file>".
type Uploader struct {
	log      *log.Logger
	resolver source.Resolver
	metrics  *metrics.Metrics
}

func NewUploader(resolver source.Resolver, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &Uploader{
		log:      logger,
		resolver: resolver,
	}
}

// ConfigPath returns the node path of fileName within configSet.
func ConfigPath(configSet, fileName string) string {
	return data.JoinPath(ConfigsRoot, configSet, fileName)
}

// UploadFile uploads a single artifact. An artifact the resolver does not
// have is skipped without error.
func (u *Uploader) UploadFile(ctx context.Context, s store.Store, configSet, fileName string) (UploadResult, error) {
	if err := data.ValidateName(configSet); err != nil {
		return UploadFailed, err
	}
	if err := data.ValidateName(fileName); err != nil {
		return UploadFailed, err
	}

	location := u.resolver.Locate(fileName)
	content, err := u.resolver.Read(ctx, fileName)
	if err != nil {
		if source.IsNotExist(err) {
			u.log.Info("skipping %s because it doesn't exist", location)
			return UploadSkipped, nil
		}

		return UploadFailed, fmt.Errorf("failed to read '%s': %w", location, err)
	}

	path := ConfigPath(configSet, fileName)
	u.log.Info("put %s to %s", location, path)

	result, err := EnsurePath(ctx, s, path, content, WithOverwrite())
	if err != nil {
		return UploadFailed, err
	}

	if result == PathUpdated {
		return UploadUpdated, nil
	}
	return UploadCreated, nil
}

// UploadConfigSet uploads every file in order. It stops at the first failing
// file and returns the report of the files handled so far.
func (u *Uploader) UploadConfigSet(ctx context.Context, s store.Store, configSet string, files []string) (*UploadReport, error) {
	report := &UploadReport{
		ConfigSet: configSet,
	}

	for _, name := range files {
		result, err := u.UploadFile(ctx, s, configSet, name)
		u.metrics.RecordUpload(result.String())
		if err != nil {
			return report, fmt.Errorf("failed to upload '%s' to config set '%s': %w", name, configSet, err)
		}

		report.add(name, result)
	}

	u.log.Debug("uploaded config set '%s': %d created, %d updated, %d skipped",
		configSet, len(report.Created), len(report.Updated), len(report.Skipped))
	return report, nil
}
