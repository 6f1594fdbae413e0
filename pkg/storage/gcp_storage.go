package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

func (g *GCSStore) Put(ctx context.Context, object *Object) (*ObjectInfo, error) {
	handle := g.client.Bucket(g.bucket).Object(object.Key)

	writer := handle.NewWriter(ctx)
	writer.ContentType = object.ContentType
	if len(object.Metadata) > 0 {
		writer.Metadata = object.Metadata
	}

	if _, err := writer.Write(object.Body); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to write to GCP storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	attrs := writer.Attrs()
	info := &ObjectInfo{
		Key:         object.Key,
		Size:        int64(len(object.Body)),
		ContentType: object.ContentType,
		Metadata:    object.Metadata,
		Location:    g.location(object.Key),
	}
	if attrs != nil {
		info.ETag = attrs.Etag
		info.LastModified = attrs.Updated
	}
	return info, nil
}

func (g *GCSStore) Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error) {
	handle := g.client.Bucket(g.bucket).Object(key)

	reader, err := handle.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read GCS object: %w", err)
	}

	return body, &ObjectInfo{
		Key:          key,
		Size:         reader.Attrs.Size,
		ContentType:  reader.Attrs.ContentType,
		LastModified: reader.Attrs.LastModified,
		Location:     g.location(key),
	}, nil
}

func (g *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GCSStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	var objects []*ObjectInfo

	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate objects: %w", err)
		}

		objects = append(objects, &ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			ContentType:  attrs.ContentType,
			LastModified: attrs.Updated,
			ETag:         attrs.Etag,
			Metadata:     attrs.Metadata,
			Location:     g.location(attrs.Name),
		})
	}

	return objects, nil
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}

func (g *GCSStore) location(key string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, key)
}
