package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pixpress/internal/processor"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.Emit(processor.Result{Status: processor.StatusSuccess, InputSize: 1000, OutputSize: 400, MetadataDropped: 3, Duration: 20 * time.Millisecond})
	r.Emit(processor.Result{Status: processor.StatusSuccess, InputSize: 500, OutputSize: 100})
	r.Emit(processor.Result{Status: processor.StatusSkipped, Reason: processor.SkipMissing})
	r.Emit(processor.Result{Status: processor.StatusFailed, Err: errors.New("x")})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"success", testutil.ToFloat64(r.jobs.WithLabelValues("success")), 2},
		{"skipped", testutil.ToFloat64(r.jobs.WithLabelValues("skipped")), 1},
		{"failed", testutil.ToFloat64(r.jobs.WithLabelValues("failed")), 1},
		{"bytes in", testutil.ToFloat64(r.bytes.WithLabelValues("in")), 1500},
		{"bytes out", testutil.ToFloat64(r.bytes.WithLabelValues("out")), 500},
		{"dropped", testutil.ToFloat64(r.dropped), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Emit(processor.Result{Status: processor.StatusSuccess, InputSize: 10, OutputSize: 5})

	path := filepath.Join(t.TempDir(), "pixpress.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `pixpress_jobs_total{status="success"} 1`) {
		t.Fatalf("missing jobs series:\n%s", data)
	}
}
