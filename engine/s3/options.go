package s3

const (
	// defaultPartSize is larger than the SDK default of 5 MiB. Bulk
	// transfers of big objects benefit from fewer, larger parts.
	defaultPartSize = 8 * 1024 * 1024

	defaultConcurrency = 5
)

type options struct {
	client      Client
	prefix      string
	partSize    int64
	concurrency int
}

// Option configures the opener.
type Option func(*options)

// WithClient injects a preconfigured S3 client instead of building one
// from the default AWS config chain.
func WithClient(client Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithPrefix prepends a key prefix to every object name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithPartSize sets the multipart upload part size in bytes.
func WithPartSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.partSize = n
		}
	}
}

// WithUploadConcurrency sets the number of parts uploaded in parallel.
func WithUploadConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		partSize:    defaultPartSize,
		concurrency: defaultConcurrency,
	}

	for _, fn := range opts {
		fn(&o)
	}

	return o
}
