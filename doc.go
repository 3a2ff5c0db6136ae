// Package filehasher computes per-block content digests over a single input
// file using a bounded-memory parallel pipeline.
//
// The file is partitioned into fixed-size contiguous blocks (the final block
// possibly short), each block is hashed independently, and the resulting
// (block index, digest) records are delivered to a caller-provided sink
// either in completion order or, via the ordered collector, in file order.
//
// Pipeline
//
//	file reader -> Chan[job] -> Pool (N hash workers) -> Chan[Result] -> Sink (1 worker) -> ResultFunc
//
// Stages exchange data exclusively through bounded closeable channels
// (Chan[T]); backpressure is the channel capacity. The producer owns closure
// of the input side; each stage closes its downstream output once all of its
// workers have exited. A worker failure closes both of its channels, which
// tears the pipeline down and is re-raised to the caller by Pool.Wait.
//
// Modes
//
// Run selects one of three execution strategies, all producing identical
// digest sequences:
//   - synchronous: no goroutines, one hasher fed from a refill buffer; chosen
//     for single-block inputs, --workers 0, or oversized blocks.
//   - streaming: one freshly allocated buffer per block; queue depth is sized
//     so that buffered blocks stay under the soft memory limit.
//   - mapped: the file is memory-mapped read-only and jobs borrow subslices
//     of the region; the region outlives every worker.
//
// Only CRC-16 (ARC polynomial, 4-char uppercase hex) is currently provided;
// Hasher is a small capability interface so further algorithms can be added
// without touching the pipeline.
package filehasher
