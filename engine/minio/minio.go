package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/bigio/engine"
)

// Opener opens objects on a MinIO or S3-compatible endpoint.
type Opener struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a MinIO opener for the given endpoint and bucket.
func New(endpoint, bucket string, opts ...Option) (*Opener, error) {
	o := applyOptions(opts)

	client := o.client
	if client == nil {
		var err error

		client, err = minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.accessKey, o.secretKey, ""),
			Secure: o.secure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
	}

	return &Opener{
		client: client,
		bucket: bucket,
		prefix: o.prefix,
	}, nil
}

func (o *Opener) key(name string) string {
	return path.Join(o.prefix, name)
}

// Stat returns object metadata via StatObject.
func (o *Opener) Stat(ctx context.Context, name string) (engine.Info, error) {
	info, err := o.client.StatObject(ctx, o.bucket, o.key(name), minio.StatObjectOptions{})
	if err != nil {
		return engine.Info{}, translateError(err, name)
	}

	return engine.Info{Size: info.Size}, nil
}

// Open verifies the object exists and returns a ranged-read source.
func (o *Opener) Open(ctx context.Context, name string) (engine.Source, error) {
	key := o.key(name)

	info, err := o.client.StatObject(ctx, o.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err, name)
	}

	return &object{
		client: o.client,
		bucket: o.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// Upload stores the contents of r under name. The unknown size makes
// the client stream r as a multipart upload.
func (o *Opener) Upload(ctx context.Context, name string, r io.Reader) error {
	_, err := o.client.PutObject(ctx, o.bucket, o.key(name), r, -1, minio.PutObjectOptions{})
	return err
}

func translateError(err error, name string) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
		return fmt.Errorf("%w: %s", engine.ErrNotFound, name)
	}

	return err
}

// object implements engine.Source over one object. Each ReadAt issues
// its own ranged GetObject, so chunk workers stay independent.
type object struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *object) Size() int64 {
	return b.size
}

func (b *object) Close() error {
	return nil
}

func (b *object) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}

	obj, err := b.client.GetObject(context.Background(), b.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}

	defer obj.Close()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err == nil && int64(n) < int64(len(p)) {
		return n, io.EOF
	}

	return n, err
}
