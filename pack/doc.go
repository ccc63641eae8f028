// Package pack implements a chunked container format for large binary
// payloads with per-chunk compression and random access.
//
// # Overview
//
// A packed file stores one payload split into fixed-size chunks, each
// compressed independently. Because chunks are addressable through an
// offset table at the end of the file, readers can decode any byte
// range without unpacking the whole payload. The chunk size is carried
// in the header, so transfer engines can align their requests with
// chunk boundaries.
//
// # Binary Format
//
//	Header:
//	  Magic       (4 bytes)  - 0x4B415042 ("BPAK")
//	  Version     (2 bytes)  - Format version (currently 1)
//	  Compression (1 byte)   - Requested compression for chunks
//	  Reserved    (1 byte)
//	  ChunkSize   (4 bytes)  - Uncompressed chunk size in bytes
//	  OrigSize    (8 bytes)  - Total uncompressed payload size
//	  CodecName   (string)   - Codec used for the metadata blob
//	  MetaLen     (4 bytes)  - Metadata blob length
//	  Meta                   - Codec-encoded metadata, optional
//
//	Chunks[] (one record per chunk):
//	  Compression (1 byte)   - Actual compression of this chunk
//	  RawLen      (4 bytes)  - Uncompressed length
//	  EncLen      (4 bytes)  - Encoded length
//	  Data                   - Encoded chunk bytes
//
//	Table:
//	  Offsets ((n+1) * 8 bytes) - File offset of each chunk record,
//	                              last entry points at the table itself
//
//	Footer (20 bytes):
//	  TableOff (8 bytes) - File offset of the table
//	  NumChunks (4 bytes)
//	  TableCRC (4 bytes) - CRC32-IEEE of the table bytes
//	  Magic    (4 bytes)
//
// Strings are length-prefixed (2-byte length + bytes). All integers
// are little-endian.
//
// # Compression
//
// Chunks are compressed with zstd or LZ4. A chunk whose compressed
// form saves less than 10% is stored raw, so incompressible payloads
// cost only the record framing.
package pack
