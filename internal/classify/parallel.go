package classify

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/variant"
)

// WorkItem holds a parsed record ready for classification.
type WorkItem struct {
	Seq    int
	Record *metadata.Record
}

// WorkResult holds the classification output for a single record.
type WorkResult struct {
	Seq    int
	Record *metadata.Record
	Query  variant.Query
	Result variant.MatchResult
}

// ParallelClassify classifies work items using a pool of workers.
// Each record is classified independently; the table scan inside a single
// query stays sequential. Results are sent in arrival order (not sequence
// order); use OrderedCollect to consume them in input order. Results are
// not attached to a report here so that attachment follows input order.
// If workers is 0, runtime.NumCPU() is used.
func (c *Classifier) ParallelClassify(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				q := QueryFor(item.Record)
				results <- WorkResult{
					Seq:    item.Seq,
					Record: item.Record,
					Query:  q,
					Result: c.Classify(q, nil),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results are buffered until the next expected sequence
// number arrives. Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
