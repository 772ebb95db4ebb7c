package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
)

// S3Resolver reads artifacts from "<bucket>/<prefix>/<name>" on an S3
// compatible object store.
type S3Resolver struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

type S3ResolverConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewS3Resolver(config S3ResolverConfig) (*S3Resolver, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 resolver requires a bucket")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &S3Resolver{
		client:     client,
		bucketName: config.Bucket,
		prefix:     strings.Trim(config.Prefix, "/"),
	}, nil
}

// Name returns the identifier name defined for this resolver.
func (*S3Resolver) Name() string {
	return "s3"
}

// Open verifies that the configured bucket exists.
func (r *S3Resolver) Open(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return dataerrors.SourceNotExist(data.ErrSourceNotExist, "s3://"+r.bucketName)
	}

	return nil
}

func (r *S3Resolver) key(name string) string {
	if r.prefix == "" {
		return name
	}

	return path.Join(r.prefix, name)
}

func (r *S3Resolver) Locate(name string) string {
	return "s3://" + r.bucketName + "/" + r.key(name)
}

func (r *S3Resolver) Read(ctx context.Context, name string) ([]byte, error) {
	if err := data.ValidateName(name); err != nil {
		return nil, err
	}

	object, err := r.client.GetObject(ctx, r.bucketName, r.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, r.wrap(err, name)
	}
	defer object.Close()

	// GetObject is lazy, a missing key surfaces on the first read
	content, err := io.ReadAll(object)
	if err != nil {
		return nil, r.wrap(err, name)
	}

	return content, nil
}

func (r *S3Resolver) wrap(err error, name string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return dataerrors.SourceNotExist(data.ErrSourceNotExist, r.Locate(name))
	}

	return err
}
