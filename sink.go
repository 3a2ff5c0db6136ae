package filehasher

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// Result is one block digest record.
type Result struct {
	Block  uint64
	Digest string
}

// ResultFunc consumes one Result. A non-nil error fails the sink worker and
// tears the pipeline down.
type ResultFunc func(Result) error

// UnorderedWriter returns a ResultFunc that writes records to w as they
// arrive, one "<index>: <digest>" line per result.
func UnorderedWriter(w io.Writer) ResultFunc {
	return func(r Result) error {
		if _, err := fmt.Fprintf(w, "%d: %s\n", r.Block, r.Digest); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		return nil
	}
}

// OrderedResults accumulates results keyed by block index and writes them in
// index order at end of run. Capacity is bounded by ResultsLimit; the
// pipeline delivers into it from the sink stage's single worker, so no
// locking is needed while the run is alive.
type OrderedResults struct {
	m *treemap.Map
}

// NewOrderedResults creates an empty ordered collector.
func NewOrderedResults() *OrderedResults {
	return &OrderedResults{m: treemap.NewWith(utils.UInt64Comparator)}
}

// Add inserts one result. It fails with ErrTooManyResults once the
// collector holds ResultsLimit entries.
func (o *OrderedResults) Add(r Result) error {
	if o.m.Size() >= ResultsLimit {
		return ErrTooManyResults
	}
	o.m.Put(r.Block, r.Digest)
	return nil
}

// Len reports the number of collected results.
func (o *OrderedResults) Len() int { return o.m.Size() }

// Write emits all collected records to w in ascending block order.
func (o *OrderedResults) Write(w io.Writer) error {
	it := o.m.Iterator()
	for it.Next() {
		if _, err := fmt.Fprintf(w, "%d: %s\n", it.Key(), it.Value()); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}
	return nil
}
