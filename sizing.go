package filehasher

import "github.com/ygrebnov/errorc"

// Process-wide policy limits. These are constants, not configuration: the
// sizing policy and the ordered collector consume them directly.
const (
	// ResultsLimit caps the ordered collector. Ordered output keeps every
	// result in memory until end of run; beyond this, unordered output is
	// the answer.
	ResultsLimit = 100_000

	// QueueLimit caps channel depth in the worker pipelines.
	QueueLimit = 1000

	// SoftMemoryLimit bounds cumulative buffered-block memory in streaming
	// mode; the queue is sized to fit under it.
	SoftMemoryLimit = 1 << 30 // 1 GiB

	// SyncBufferSize is the refill buffer used by synchronous mode.
	SyncBufferSize = 10 << 20 // 10 MiB
)

// Mode is the execution strategy chosen by the sizing policy.
type Mode int

const (
	ModeSync Mode = iota
	ModeStreaming
	ModeMapped
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeStreaming:
		return "streaming"
	case ModeMapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// Plan is the resolved execution shape for one run.
type Plan struct {
	Mode    Mode
	Workers int
	Queue   int
	Blocks  uint64
}

// PlanFor derives the execution plan from the options and the input size.
//
// Single-block inputs and Workers == 0 run synchronously. Mapped mode takes
// the maximum queue since buffered jobs carry no heap. Streaming sizes its
// queue so that queued blocks stay under SoftMemoryLimit, falling through to
// synchronous when even one queued block would not fit. Workers are clamped
// to the queue depth (a worker without a slot would sit idle) and to the
// block count.
func PlanFor(opts Options, fileSize int64) (Plan, error) {
	if fileSize <= 0 {
		return Plan{}, errorc.With(ErrOptions, errorc.String("", "input file is empty"))
	}

	blocks := (uint64(fileSize) + opts.BlockSize - 1) / opts.BlockSize
	plan := Plan{Mode: ModeSync, Blocks: blocks}

	if blocks == 1 || opts.Workers == 0 {
		return plan, nil
	}

	if opts.Mapping {
		plan.Mode = ModeMapped
		plan.Queue = QueueLimit
	} else {
		fit := SoftMemoryLimit / opts.BlockSize
		if fit <= 1 {
			// one queued block would already breach the limit
			return plan, nil
		}
		plan.Mode = ModeStreaming
		plan.Queue = QueueLimit
		if fit-1 < QueueLimit {
			plan.Queue = int(fit - 1)
		}
	}

	plan.Workers = opts.Workers
	if plan.Workers > plan.Queue {
		plan.Workers = plan.Queue
	}
	if uint64(plan.Workers) > blocks {
		plan.Workers = int(blocks)
	}
	return plan, nil
}
