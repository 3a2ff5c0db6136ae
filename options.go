package filehasher

import (
	"math"
	"strconv"
	"strings"

	"github.com/ygrebnov/errorc"
)

// Options is the run configuration consumed by the core. The CLI authors it
// from flags; library callers fill it directly.
type Options struct {
	// InputFile is the path of the file to digest. Required.
	InputFile string

	// OutputFile is where the CLI writes records; empty means stdout.
	// The library itself never opens it — the sink does the writing.
	OutputFile string

	// BlockSize is the size of one block in bytes. Must be positive.
	BlockSize uint64

	// Workers is the hash worker count. Zero forces synchronous mode.
	Workers int

	// Sorted selects ordered output (collected, emitted at end of run).
	Sorted bool

	// Mapping selects memory-mapped reading instead of streaming.
	Mapping bool
}

// Validate checks the fields the core depends on.
func (o *Options) Validate() error {
	if o.InputFile == "" {
		return errorc.With(ErrOptions, errorc.String("", "input file is required"))
	}
	if o.BlockSize == 0 {
		return errorc.With(ErrOptions, errorc.String("", "block size must be positive"))
	}
	if o.Workers < 0 {
		return errorc.With(ErrOptions, errorc.String("", "workers must be >= 0"))
	}
	return nil
}

// ParseSize parses a size literal with an optional scale suffix:
// B for bytes (the default), K for KiB, M for MiB, G for GiB.
// Suffixes are case-insensitive. "1M" -> 1048576.
func ParseSize(value string) (uint64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, errorc.With(ErrOptions, errorc.String("", "empty size"))
	}

	scale := uint64(1)
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		switch last {
		case 'B', 'b':
			scale = 1
		case 'K', 'k':
			scale = 1 << 10
		case 'M', 'm':
			scale = 1 << 20
		case 'G', 'g':
			scale = 1 << 30
		default:
			return 0, errorc.With(ErrOptions, errorc.String("", "invalid size suffix in: "+value))
		}
		s = s[:len(s)-1]
	}

	count, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errorc.With(ErrOptions, errorc.String("", "invalid size: "+value))
	}
	if scale != 1 && count > math.MaxUint64/scale {
		return 0, errorc.With(ErrOptions, errorc.String("", "size out of range: "+value))
	}
	return count * scale, nil
}
