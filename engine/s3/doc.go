// Package s3 provides an engine.Opener backed by Amazon S3.
//
// Chunk reads translate to ranged GetObject calls, so workers pull
// disjoint byte ranges of one object in parallel without a shared
// cursor. Stat issues a single HeadObject.
//
//	opener, err := s3.New(ctx, "my-bucket", s3.WithPrefix("datasets/"))
//	if err != nil { ... }
//
//	eng := engine.New(engine.WithOpener(opener))
//
// Upload streams data into an object with the SDK transfer manager,
// switching to multipart uploads for large bodies.
package s3
