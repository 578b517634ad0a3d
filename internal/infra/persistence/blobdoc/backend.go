// Package blobdoc stores the account document as one object in a gocloud.dev bucket.
package blobdoc

import (
	"context"

	"credstore/internal/domain/repository"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

const contentType = "application/json"

// Backend keeps the document under a single key.
// Object writes are all-or-nothing, so a failed Replace leaves the previous object in place.
type Backend struct {
	bucket *blob.Bucket
	key    string
}

var _ repository.DocumentBackend = (*Backend)(nil)

// Open opens the bucket named by bucketURL, e.g. "file:///var/lib/credstore" or "mem://".
func Open(ctx context.Context, bucketURL, key string) (*Backend, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}

	return New(bucket, key), nil
}

// New wraps an already opened bucket.
func New(bucket *blob.Bucket, key string) *Backend {
	return &Backend{
		bucket: bucket,
		key:    key,
	}
}

// Read returns the object body, or ErrDocumentNotFound when the key is absent.
func (b *Backend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, b.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrap(repository.ErrDocumentNotFound, b.key)
		}

		return nil, errors.Wrapf(err, "read object %s", b.key)
	}

	return data, nil
}

// Replace overwrites the object with data.
func (b *Backend) Replace(ctx context.Context, data []byte) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := b.bucket.WriteAll(ctx, b.key, data, opts); err != nil {
		return errors.Wrapf(err, "write object %s", b.key)
	}

	return nil
}

// Close releases the bucket.
func (b *Backend) Close() error {
	return errors.WithStack(b.bucket.Close())
}
