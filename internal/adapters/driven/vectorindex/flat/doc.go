// Package flat provides exact, in-memory vector indexes persisted as a
// binary vector file plus a JSON metadata sidecar.
//
// ChunkIndex ranks by Euclidean distance (ascending, ties by insertion
// order). DocumentIndex L2-normalises vectors and ranks by inner product,
// i.e. cosine similarity (descending).
//
// File layout of the vector file (little endian):
//
//	magic    [4]byte  "RRVX"
//	version  uint32
//	metric   uint32   0 = L2, 1 = inner product
//	dim      uint32
//	count    uint32
//	metaSum  [32]byte sha256 of the sidecar bytes
//	vectors  count*dim float32
//
// The sidecar checksum ties each vector file to exactly one metadata file,
// so a mismatched pair is reported as domain.ErrIndexCorrupt.
package flat
