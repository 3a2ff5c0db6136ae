package filehasher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/filehasher/metrics"
)

// job is one unit of work for a hash worker: the block ordinal and its
// bytes. Streaming mode owns the buffer; mapped mode borrows a subslice of
// the mapped region, which outlives every worker.
type job struct {
	block uint64
	data  []byte
}

// runConfig carries the ambient collaborators of a run.
type runConfig struct {
	logger   *zap.Logger
	provider metrics.Provider
	hasher   Hasher
}

// RunOption configures a run.
type RunOption func(*runConfig) error

// WithLogger attaches a logger for debug-level pipeline events. Default is
// a no-op logger.
func WithLogger(l *zap.Logger) RunOption {
	return func(cfg *runConfig) error {
		if l == nil {
			return errorc.With(ErrOptions, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.logger = l
		return nil
	}
}

// WithMetrics attaches an instrument provider. The run records the counters
// "blocks_hashed" and "bytes_read" and the histogram "run_seconds". Default
// is the discarding provider.
func WithMetrics(p metrics.Provider) RunOption {
	return func(cfg *runConfig) error {
		if p == nil {
			return errorc.With(ErrOptions, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.provider = p
		return nil
	}
}

// WithHasher substitutes the digest capability. The hasher is cloned once
// per worker; the instance given here is never used concurrently. Default
// is CRC-16.
func WithHasher(h Hasher) RunOption {
	return func(cfg *runConfig) error {
		if h == nil {
			return errorc.With(ErrOptions, errorc.String("", "WithHasher requires a non-nil hasher"))
		}
		cfg.hasher = h
		return nil
	}
}

// Run digests opts.InputFile block by block and delivers each Result to
// sink. The execution mode (synchronous, streaming or mapped) is chosen by
// PlanFor; all modes produce the same multiset of results. In the pool
// modes sink is invoked from the single sink worker; in synchronous mode it
// is invoked from the calling goroutine. Either way calls are serial.
//
// Cancellation is cooperative: the streaming and mapped producers check ctx
// before each block and synchronous mode before each buffer refill; the run
// then stops and returns the context error.
func Run(ctx context.Context, opts Options, sink ResultFunc, ropts ...RunOption) error {
	if sink == nil {
		return errorc.With(ErrOptions, errorc.String("", "a result sink is required"))
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	cfg := runConfig{logger: zap.NewNop(), provider: metrics.NewNoop()}
	for _, opt := range ropts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return err
		}
	}
	if cfg.hasher == nil {
		h, err := NewHasher(AlgorithmCRC16)
		if err != nil {
			return err
		}
		cfg.hasher = h
	}

	fi, err := os.Stat(opts.InputFile)
	if err != nil {
		return fmt.Errorf("%w: failed to read metadata of file [%s]: %v", ErrOptions, opts.InputFile, err)
	}

	plan, err := PlanFor(opts, fi.Size())
	if err != nil {
		return err
	}

	cfg.logger.Debug("running",
		zap.Stringer("mode", plan.Mode),
		zap.Int("workers", plan.Workers),
		zap.Int("queue", plan.Queue),
		zap.Uint64("blocks", plan.Blocks),
		zap.Uint64("block_size", opts.BlockSize),
	)

	d := &driver{
		opts:         opts,
		plan:         plan,
		hasher:       cfg.hasher,
		blocksHashed: cfg.provider.Counter("blocks_hashed"),
		bytesRead:    cfg.provider.Counter("bytes_read"),
	}

	start := time.Now()
	switch plan.Mode {
	case ModeMapped:
		err = d.runMapped(ctx, sink)
	case ModeStreaming:
		err = d.runStreaming(ctx, sink)
	default:
		err = d.runSync(ctx, sink)
	}
	elapsed := time.Since(start)
	cfg.provider.Histogram("run_seconds").Record(elapsed.Seconds())

	if err != nil {
		cfg.logger.Debug("run failed", zap.Error(err))
		return err
	}
	cfg.logger.Debug("done", zap.Duration("elapsed", elapsed))
	return nil
}

type driver struct {
	opts Options
	plan Plan

	hasher       Hasher
	blocksHashed metrics.Counter
	bytesRead    metrics.Counter
}

// newHashWorker is the worker factory for the hashing stage; each worker
// gets an independent hasher clone.
func (d *driver) newHashWorker() WorkerFunc[job, Result] {
	h := d.hasher.Clone()
	return func(j job) (Result, error) {
		h.ProcessBytes(j.data)
		d.blocksHashed.Add(1)
		return Result{Block: j.block, Digest: h.Result()}, nil
	}
}

// runSync processes the file on the calling goroutine: no workers, no
// channels, one hasher fed from a refill buffer, a Result emitted every
// BlockSize absorbed bytes and once more for a trailing partial block.
func (d *driver) runSync(ctx context.Context, sink ResultFunc) error {
	f, err := os.Open(d.opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open file [%s]: %w", d.opts.InputFile, err)
	}
	defer f.Close()

	h := d.hasher.Clone()
	var block uint64
	remainder := d.opts.BlockSize
	buf := make([]byte, SyncBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			d.bytesRead.Add(int64(n))
			chunk := buf[:n]
			for len(chunk) > 0 {
				take := remainder
				if uint64(len(chunk)) < take {
					take = uint64(len(chunk))
				}
				h.ProcessBytes(chunk[:take])
				chunk = chunk[take:]
				remainder -= take

				if remainder == 0 {
					remainder = d.opts.BlockSize
					d.blocksHashed.Add(1)
					if err := sink(Result{Block: block, Digest: h.Result()}); err != nil {
						return err
					}
					block++
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read input file: %w", rerr)
		}
	}

	// trailing partial block
	if remainder != d.opts.BlockSize {
		d.blocksHashed.Add(1)
		if err := sink(Result{Block: block, Digest: h.Result()}); err != nil {
			return err
		}
	}
	return nil
}

// runStreaming builds the two-stage pipeline and feeds it one freshly
// allocated buffer per block. The producer stops on EOF, terminator
// closure, context cancellation, a read failure, or a rejected push (the
// pipeline has torn itself down); worker failures are then re-raised by the
// Wait calls.
func (d *driver) runStreaming(ctx context.Context, sink ResultFunc) error {
	f, err := os.Open(d.opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open file [%s]: %w", d.opts.InputFile, err)
	}
	defer f.Close()

	workers := NewPool[job, Result](d.plan.Workers, d.plan.Queue, d.newHashWorker)
	defer workers.Close()
	resulter := NewSink(workers, 1, d.plan.Queue, func() SinkFunc[Result] { return SinkFunc[Result](sink) })
	defer resulter.Close()

	input := workers.Input()
	terminator := resulter.Terminator()

	var perr error
	for block := uint64(0); !terminator.IsClosed(); block++ {
		if err := ctx.Err(); err != nil {
			perr = err
			break
		}

		buf := make([]byte, d.opts.BlockSize)
		n, rerr := io.ReadFull(f, buf)
		if rerr == io.ErrUnexpectedEOF {
			rerr = io.EOF
		}
		if n == 0 {
			if rerr != nil && rerr != io.EOF {
				perr = fmt.Errorf("failed to read input file: %w", rerr)
			}
			break
		}

		d.bytesRead.Add(int64(n))
		if !input.Push(job{block: block, data: buf[:n]}) {
			break
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			perr = fmt.Errorf("failed to read input file: %w", rerr)
			break
		}
	}

	input.Close()
	if err := workers.Wait(); err != nil {
		return err
	}
	if err := resulter.Wait(); err != nil {
		return err
	}
	return perr
}

// runMapped maps the whole file read-only and pushes borrowed jobs that
// reference the region. No per-block allocation happens; the queue is at
// its maximum since buffered jobs carry no heap. The deferred Close order
// guarantees the region outlives both pools.
func (d *driver) runMapped(ctx context.Context, sink ResultFunc) error {
	region, err := mapFile(d.opts.InputFile)
	if err != nil {
		return err
	}
	defer region.Close()

	workers := NewPool[job, Result](d.plan.Workers, d.plan.Queue, d.newHashWorker)
	defer workers.Close()
	resulter := NewSink(workers, 1, d.plan.Queue, func() SinkFunc[Result] { return SinkFunc[Result](sink) })
	defer resulter.Close()

	input := workers.Input()
	terminator := resulter.Terminator()

	data := region.Bytes()
	size := uint64(len(data))

	var perr error
	block := uint64(0)
	for off := uint64(0); off < size && !terminator.IsClosed(); off += d.opts.BlockSize {
		if err := ctx.Err(); err != nil {
			perr = err
			break
		}
		end := off + d.opts.BlockSize
		if end > size {
			end = size
		}
		d.bytesRead.Add(int64(end - off))
		if !input.Push(job{block: block, data: data[off:end]}) {
			break
		}
		block++
	}

	input.Close()
	if err := workers.Wait(); err != nil {
		return err
	}
	if err := resulter.Wait(); err != nil {
		return err
	}
	return perr
}
