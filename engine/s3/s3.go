package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/bigio/engine"
)

// Client is the subset of the S3 API the opener uses. *s3.Client
// satisfies it; tests substitute a mock.
type Client interface {
	manager.UploadAPIClient

	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener opens S3 objects as transfer sources.
type Opener struct {
	client      Client
	bucket      string
	prefix      string
	partSize    int64
	concurrency int
}

// New creates an S3 opener for the given bucket. Without WithClient it
// builds a client from the default AWS config chain (env, shared config,
// IMDS).
func New(ctx context.Context, bucket string, opts ...Option) (*Opener, error) {
	o := applyOptions(opts)

	client := o.client
	if client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client = s3.NewFromConfig(cfg)
	}

	return &Opener{
		client:      client,
		bucket:      bucket,
		prefix:      o.prefix,
		partSize:    o.partSize,
		concurrency: o.concurrency,
	}, nil
}

func (o *Opener) key(name string) string {
	return path.Join(o.prefix, name)
}

// Stat returns object metadata via HeadObject.
func (o *Opener) Stat(ctx context.Context, name string) (engine.Info, error) {
	head, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key(name)),
	})
	if err != nil {
		return engine.Info{}, translateError(err, name)
	}

	return engine.Info{Size: aws.ToInt64(head.ContentLength)}, nil
}

// Open verifies the object exists and returns a ranged-read source.
func (o *Opener) Open(ctx context.Context, name string) (engine.Source, error) {
	key := o.key(name)

	head, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err, name)
	}

	return &object{
		client: o.client,
		bucket: o.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Upload stores the contents of r under name. Large bodies go through
// multipart upload with the configured part size and concurrency.
func (o *Opener) Upload(ctx context.Context, name string, r io.Reader) error {
	uploader := manager.NewUploader(o.client, func(u *manager.Uploader) {
		u.PartSize = o.partSize
		u.Concurrency = o.concurrency
	})

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key(name)),
		Body:   r,
	})

	return err
}

func translateError(err error, name string) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", engine.ErrNotFound, name)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", engine.ErrNotFound, name)
	}

	return err
}

// object implements engine.Source over one S3 object.
type object struct {
	client Client
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

// ReadAt fetches bytes [off, off+len(p)) with a ranged GetObject.
func (b *object) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}

	defer func() { _ = resp.Body.Close() }()

	n, err := io.ReadFull(resp.Body, p[:end-off+1])
	if err == nil && int64(n) < int64(len(p)) {
		return n, io.EOF
	}

	return n, err
}
