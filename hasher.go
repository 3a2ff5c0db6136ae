package filehasher

import (
	"fmt"

	"github.com/sigurn/crc16"
	"github.com/ygrebnov/errorc"
)

// Algorithm selects a digest algorithm.
type Algorithm string

// AlgorithmCRC16 is the CRC-16/ARC polynomial (0x8005, reflected, zero
// init), the default 16-bit CRC of the underlying library. It is the only
// algorithm currently provided.
const AlgorithmCRC16 Algorithm = "crc16"

// Hasher is the digest capability applied to each block. Result finalizes
// the digest of the bytes absorbed so far, renders it as a printable string
// and resets the state, so one Hasher serves consecutive blocks.
//
// A Hasher is not safe for concurrent use; Clone produces an independent
// instance so every pool worker owns its own state.
type Hasher interface {
	ProcessBytes(p []byte)
	Result() string
	Clone() Hasher
}

// NewHasher returns a Hasher for the given algorithm.
func NewHasher(alg Algorithm) (Hasher, error) {
	switch alg {
	case AlgorithmCRC16:
		return newCRC16(), nil
	default:
		return nil, errorc.With(ErrOptions, errorc.String("", "unsupported hash algorithm: "+string(alg)))
	}
}

var crc16Table = crc16.MakeTable(crc16.CRC16_ARC)

type crc16Hasher struct {
	crc uint16
}

func newCRC16() *crc16Hasher {
	return &crc16Hasher{crc: crc16.Init(crc16Table)}
}

func (h *crc16Hasher) ProcessBytes(p []byte) {
	h.crc = crc16.Update(h.crc, p, crc16Table)
}

// Result renders the digest as 4-character uppercase hex and resets the CRC.
func (h *crc16Hasher) Result() string {
	s := fmt.Sprintf("%04X", crc16.Complete(h.crc, crc16Table))
	h.crc = crc16.Init(crc16Table)
	return s
}

func (h *crc16Hasher) Clone() Hasher {
	return &crc16Hasher{crc: h.crc}
}
