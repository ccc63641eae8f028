package minio

import "github.com/minio/minio-go/v7"

type options struct {
	client    *minio.Client
	accessKey string
	secretKey string
	secure    bool
	prefix    string
}

// Option configures the opener.
type Option func(*options)

// WithClient injects a preconfigured MinIO client.
func WithClient(client *minio.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithCredentials sets static access credentials.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithSecure enables TLS for the endpoint connection.
func WithSecure(secure bool) Option {
	return func(o *options) {
		o.secure = secure
	}
}

// WithPrefix prepends a key prefix to every object name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func applyOptions(opts []Option) options {
	o := options{}

	for _, fn := range opts {
		fn(&o)
	}

	return o
}
