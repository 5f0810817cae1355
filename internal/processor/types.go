package processor

import "time"

type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job describes one image to compress. It is passed by value and never
// modified after the batch is built.
type Job struct {
	Index  int
	Input  string
	Output string
	Config Config
}

// Batch is the ordered set of jobs for one invocation.
type Batch []Job

// Result is the outcome of exactly one Job. Which fields are meaningful
// depends on Status: sizes and dimensions for success, Reason for skipped,
// Err for failed.
type Result struct {
	Index  int
	Input  string
	Output string
	Status Status

	InputName       string
	OutputName      string
	InputSize       int64
	OutputSize      int64
	Width           int
	Height          int
	MetadataDropped int

	Reason string
	Err    error

	Duration time.Duration
}

// Summary aggregates the results of one Run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	BytesIn   int64
	BytesOut  int64
	Elapsed   time.Duration
}

func (s *Summary) add(res Result) {
	switch res.Status {
	case StatusSuccess:
		s.Succeeded++
		s.BytesIn += res.InputSize
		s.BytesOut += res.OutputSize
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// BytesSaved is negative when the batch grew.
func (s Summary) BytesSaved() int64 {
	return s.BytesIn - s.BytesOut
}

// Sink receives every Result of a run exactly once. Implementations must
// tolerate calls from the collector goroutine while the caller is blocked
// in Run.
type Sink interface {
	Emit(Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Result)

func (f SinkFunc) Emit(res Result) { f(res) }

// Progress pairs a Result with the number of results delivered so far.
type Progress struct {
	Result    Result
	Completed int
	Total     int
}

// RunOptions controls how Run schedules a batch.
type RunOptions struct {
	// Parallel enables the worker pool for batches of more than one job.
	Parallel bool
	// Workers caps the pool size; 0 means min(NumCPU, len(batch)).
	Workers int
	// Ordered emits results in submission order instead of completion order.
	Ordered bool
}
