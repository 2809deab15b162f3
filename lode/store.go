package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Report storage backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Storage locates the report dataset's backing store.
type Storage struct {
	// Backend is BackendFS or BackendS3.
	Backend string
	// Path is a directory for fs, and "bucket" or "bucket/prefix" for s3.
	Path string

	// S3 only. Region and credentials fall back to the AWS default chain.
	Region string
	// Endpoint targets S3-compatible providers (MinIO, R2).
	Endpoint string
	// UsePathStyle is required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that Backend is known and Path is usable for it.
// It does not touch the store.
func (s Storage) Validate() error {
	switch s.Backend {
	case BackendFS:
		if s.Path == "" {
			return errors.New("fs report storage requires a directory path")
		}
	case BackendS3:
		if bucket, _ := splitBucket(s.Path); bucket == "" {
			return errors.New("s3 report storage requires a bucket (format: bucket/prefix)")
		}
	default:
		return fmt.Errorf("unknown report backend %q (must be fs or s3)", s.Backend)
	}
	return nil
}

// Factory builds the Lode store factory for s. For s3 this loads the AWS
// configuration once; each store the factory creates shares the client.
func (s Storage) Factory(ctx context.Context) (lode.StoreFactory, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Backend == BackendFS {
		return lode.NewFSFactory(s.Path), nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if s.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = &s.Endpoint
		}
		o.UsePathStyle = s.UsePathStyle
	})
	bucket, prefix := splitBucket(s.Path)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: bucket, Prefix: prefix})
	}, nil
}

// splitBucket splits "bucket/prefix/more" into "bucket" and "prefix/more".
func splitBucket(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(strings.Trim(path, "/"), "/")
	return bucket, prefix
}
