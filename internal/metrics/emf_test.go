package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestRecorder_FlushOutput(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	functionName = "" // Clear for test isolation

	rec := New()
	rec.Dimension("Operation", "analyze")
	rec.Metric("PipelineLatencyMs", 1234.5, UnitMilliseconds)
	rec.Count("Analyses")
	rec.Property("requestId", "abc-123")
	rec.Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if _, ok := doc["_aws"]; !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if doc["Operation"] != "analyze" {
		t.Errorf("expected Operation=analyze, got %v", doc["Operation"])
	}
	if doc["PipelineLatencyMs"] != 1234.5 {
		t.Errorf("expected PipelineLatencyMs=1234.5, got %v", doc["PipelineLatencyMs"])
	}
	if doc["Analyses"] != float64(1) {
		t.Errorf("expected Analyses=1, got %v", doc["Analyses"])
	}
	if doc["requestId"] != "abc-123" {
		t.Errorf("expected requestId property, got %v", doc["requestId"])
	}
}

func TestRecorder_EmptyFlushEmitsNothing(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	New().Property("requestId", "no-metrics").Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() != 0 {
		t.Errorf("expected no output for metric-less recorder, got %s", buf.String())
	}
}
