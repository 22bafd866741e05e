package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"herald/internal/logging"
)

func TestNewJSONFormatEmitsStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("queue drained", logging.Args(logging.Int("sent", 3))...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "queue drained" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["sent"] != float64(3) {
		t.Fatalf("unexpected sent field: %v", record["sent"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatal("info line leaked past warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Fatal("warn line missing")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logging.NewComponentLogger(logger, "worker").Info("started")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record[logging.FieldComponent] != "worker" {
		t.Fatalf("expected component=worker, got %v", record[logging.FieldComponent])
	}

	nop := logging.NewComponentLogger(nil, "worker")
	nop.Info("discarded")
}
