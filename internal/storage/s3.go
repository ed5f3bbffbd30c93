package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 is a path-addressed Layer backed by an S3-compatible bucket. Blob puts
// are idempotent by key: an existing object at the deterministic path is
// never overwritten (spec.md §4.D).
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 Layer for bucket using the given profile and region,
// loading credentials the standard AWS SDK way (env vars, shared config,
// or instance role).
func NewS3(ctx context.Context, bucket, profile, region string) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3) PutBlob(ctx context.Context, artifact Artifact, data []byte) ([]ObjectKey, error) {
	key := artifact.DeterministicPath("archive")

	if s.objectExists(ctx, key) {
		return []ObjectKey{NamedKey(key)}, nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 put blob: %w", err)
	}
	return []ObjectKey{NamedKey(key)}, nil
}

func (s *S3) GetBlob(ctx context.Context, key ObjectKey) ([]byte, error) {
	if key.Kind != KindNamed {
		return nil, ErrBadKeyKind
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key.Path,
	})
	if err != nil {
		return nil, ErrNotFound
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3) PutPointer(ctx context.Context, p Pointer) (ObjectKey, error) {
	key := p.Artifact.DeterministicPath("meta.json")
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ObjectKey{}, err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return ObjectKey{}, fmt.Errorf("storage: s3 put pointer: %w", err)
	}
	return NamedKey(key), nil
}

func (s *S3) GetPointer(ctx context.Context, artifact Artifact) (*Pointer, error) {
	key := artifact.DeterministicPath("meta.json")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, nil
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *S3) SupportsContentID() bool { return false }

func (s *S3) objectExists(ctx context.Context, key string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err == nil
}
