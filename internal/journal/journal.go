// Package journal is an append-only JSONL audit log of match outcomes and
// goals, written asynchronously in batches.
package journal

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/soccer"
)

const (
	BufferSize     = 1024
	MaxRecordsPerS = 1000
	BatchSize      = 64
	FlushInterval  = 100 * time.Millisecond
)

// RecordType classifies journal lines.
type RecordType uint8

const (
	RecordUnknown RecordType = iota
	RecordOutcome
	RecordSkip
	RecordGoal
)

// Version of the line schema.
const Version uint8 = 1

func (t RecordType) String() string {
	switch t {
	case RecordOutcome:
		return "outcome"
	case RecordSkip:
		return "skip"
	case RecordGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the record type by name.
func (t RecordType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Record is one journal line.
type Record struct {
	Version   uint8           `json:"version"`
	Type      RecordType      `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Sequence  uint64          `json:"sequence"`
	MatchID   string          `json:"match_id"`
	Payload   json.RawMessage `json:"payload"`
}

// GoalPayload is the payload of a goal record.
type GoalPayload struct {
	Cycle   int         `json:"cycle"`
	Team    soccer.Side `json:"team"`
	Scorer  string      `json:"scorer"`
	Assist  string      `json:"assist,omitempty"`
	OwnGoal bool        `json:"own_goal"`
}

// Journal buffers records and flushes them to a file. The zero value is not
// usable; call New.
type Journal struct {
	limiter *rate.Limiter

	mu     sync.Mutex
	buffer []Record
	seq    uint64

	file   *os.File
	fileMu sync.Mutex

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	dropped    atomic.Uint64
	written    atomic.Uint64
	writeError atomic.Bool // set after the first failed write is logged
}

// New creates a stopped journal.
func New() *Journal {
	return &Journal{
		limiter: rate.NewLimiter(MaxRecordsPerS, MaxRecordsPerS/10),
		buffer:  make([]Record, 0, BufferSize),
		stop:    make(chan struct{}),
	}
}

// Start opens path for append and starts the writer. An empty path keeps
// records in memory only until they are flushed away.
func (j *Journal) Start(path string) error {
	if j.running.Load() {
		return nil
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		j.file = f
	}
	j.running.Store(true)
	j.wg.Add(1)
	go j.writerLoop()
	return nil
}

// Stop flushes pending records and closes the file.
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		j.running.Store(false)
		close(j.stop)
		j.wg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Emit queues a record. It returns false when the journal is stopped or the
// record was rate limited. A full buffer drops the oldest record.
func (j *Journal) Emit(typ RecordType, matchID string, payload any) bool {
	if !j.running.Load() {
		return false
	}
	if !j.limiter.Allow() {
		j.dropped.Add(1)
		return false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		j.dropped.Add(1)
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.buffer) >= BufferSize {
		j.buffer = j.buffer[1:]
		j.dropped.Add(1)
	}
	j.seq++
	j.buffer = append(j.buffer, Record{
		Version:   Version,
		Type:      typ,
		Timestamp: time.Now().UnixNano(),
		Sequence:  j.seq,
		MatchID:   matchID,
		Payload:   data,
	})
	return true
}

// RecordOutcome writes the outcome followed by one record per goal.
func (j *Journal) RecordOutcome(o evaluator.Outcome) {
	if o.Skipped() {
		j.Emit(RecordSkip, o.MatchID(), o)
		return
	}
	j.Emit(RecordOutcome, o.MatchID(), o)
	for _, ev := range o.Goals() {
		if ev.Goal == nil {
			continue
		}
		j.Emit(RecordGoal, o.MatchID(), GoalPayload{
			Cycle:   ev.Cycle,
			Team:    ev.Goal.ScoringTeam,
			Scorer:  ev.Goal.ScorerID,
			Assist:  ev.Goal.AssistID,
			OwnGoal: ev.Goal.OwnGoal,
		})
	}
}

func (j *Journal) writerLoop() {
	defer j.wg.Done()
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			for j.flush() > 0 {
			}
			return
		case <-ticker.C:
			j.flush()
		}
	}
}

// flush writes up to BatchSize records and returns how many were taken.
func (j *Journal) flush() int {
	j.mu.Lock()
	n := min(len(j.buffer), BatchSize)
	batch := append([]Record(nil), j.buffer[:n]...)
	j.buffer = j.buffer[n:]
	j.mu.Unlock()

	if n == 0 {
		return 0
	}
	j.fileMu.Lock()
	defer j.fileMu.Unlock()
	if j.file == nil {
		return n
	}
	for _, r := range batch {
		data, err := json.Marshal(r)
		if err != nil {
			j.dropped.Add(1)
			continue
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			j.dropped.Add(1)
			if !j.writeError.Swap(true) {
				log.Printf("⚠️ Journal write failed: %v", err)
			}
			continue
		}
		j.written.Add(1)
	}
	return n
}

// Stats reports counters for monitoring.
func (j *Journal) Stats() map[string]any {
	j.mu.Lock()
	pending := len(j.buffer)
	j.mu.Unlock()
	return map[string]any{
		"written": j.written.Load(),
		"dropped": j.dropped.Load(),
		"pending": pending,
		"running": j.running.Load(),
	}
}

// Dropped returns the number of dropped records.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }
