package service

import (
	"sync"
	"sync/atomic"

	"github.com/chaingate/chaingate/internal/domain/query"
)

// PipelineStats is a snapshot of the pipeline counters.
type PipelineStats struct {
	// Total is the number of Ask calls, including rejected ones.
	Total int64 `json:"total"`
	// Accepted is the number of generated queries that passed all gates.
	Accepted int64 `json:"accepted"`
	// FellBack is the number of requests answered with a fallback.
	FellBack int64 `json:"fell_back"`
	// Rejected is the number of terminal failures.
	Rejected int64 `json:"rejected"`
	// ByClassification counts accepted and fell-back requests per
	// question class.
	ByClassification map[query.Classification]int64 `json:"by_classification"`
}

// pipelineStats holds the live counters. Atomics for the hot counts, a
// mutex for the classification map.
type pipelineStats struct {
	total    atomic.Int64
	accepted atomic.Int64
	fellBack atomic.Int64
	rejected atomic.Int64

	mu      sync.Mutex
	byClass map[query.Classification]int64
}

func (s *pipelineStats) countTotal() {
	s.total.Add(1)
}

func (s *pipelineStats) countAccepted(class query.Classification) {
	s.accepted.Add(1)
	s.countClass(class)
}

func (s *pipelineStats) countFellBack(class query.Classification) {
	s.fellBack.Add(1)
	s.countClass(class)
}

func (s *pipelineStats) countRejected() {
	s.rejected.Add(1)
}

func (s *pipelineStats) countClass(class query.Classification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byClass == nil {
		s.byClass = make(map[query.Classification]int64)
	}
	s.byClass[class]++
}

func (s *pipelineStats) snapshot() PipelineStats {
	s.mu.Lock()
	byClass := make(map[query.Classification]int64, len(s.byClass))
	for class, count := range s.byClass {
		byClass[class] = count
	}
	s.mu.Unlock()

	return PipelineStats{
		Total:            s.total.Load(),
		Accepted:         s.accepted.Load(),
		FellBack:         s.fellBack.Load(),
		Rejected:         s.rejected.Load(),
		ByClassification: byClass,
	}
}
