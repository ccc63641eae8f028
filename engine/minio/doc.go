// Package minio provides an engine.Opener for MinIO and other
// S3-compatible object stores.
//
// It mirrors the behavior of the s3 opener with the lighter minio-go
// client, which is handy for self-hosted deployments and local
// integration tests against a MinIO container.
package minio
