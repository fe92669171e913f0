package log

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	forestErrors "github.com/YuminosukeSato/forestrank/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationInduce)
	testLogger.Warn("warning message", RankingMethodKey, "permutation")
	testLogger.Error("error message", fmt.Errorf("bag failed"), BagKey, 3)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty buffer")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "bag failed") {
		t.Error("leading error should be stored under the error key")
	}
	if !testLogger.ContainsField(BagKey, 3.0) {
		t.Error("fields after a leading error should be kept")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		RunIDKey, "run-1",
		EnsembleMethodKey, "Bagging",
	)
	contextLogger.Info("contextual message", BagKey, 1)

	if !testLogger.ContainsField(RunIDKey, "run-1") {
		t.Error("run id context not found")
	}
	if !testLogger.ContainsField(EnsembleMethodKey, "Bagging") {
		t.Error("method context not found")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	if !testLogger.Enabled(ctx, LevelWarn) {
		t.Error("warn should be enabled at info level")
	}

	testLogger.Debug("hidden")
	if strings.Contains(buffer.String(), "hidden") {
		t.Error("debug message should have been filtered")
	}
}

func TestProviderNamesComponent(t *testing.T) {
	provider, _ := NewTestLoggerProvider(LevelDebug)

	provider.GetLoggerWithName("ensemble.oob").Info("updated")
	if !provider.Logger().ContainsField(ComponentKey, "ensemble.oob") {
		t.Error("component name not recorded")
	}

	provider.SetLevel(LevelError)
	provider.GetLogger().Info("dropped")
	if provider.Logger().ContainsMessage("dropped") {
		t.Error("SetLevel should raise the threshold")
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("ranking.relief").With(RunIDKey, "abc")
	logger.Debug("not written")
	logger.Info("iteration done", IterationKey, 4)
	logger.Error("distance failed", forestErrors.NewSeriesLengthError("QDM", 3, 4))

	out := buf.String()
	if strings.Contains(out, "not written") {
		t.Error("debug record should be filtered at info level")
	}
	for _, want := range []string{`"ml.component":"ranking.relief"`, `"run.id":"abc"`, `"training.iteration":4`, `"error":"forestrank: QDM distance`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	if err := SetupLogger("debug", &buf); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	defer forestErrors.SetZerologWarnFunc(nil)

	forestErrors.Warn(forestErrors.NewConfigAdjustedWarning("oob_estimate", false, true, "permutation ranking"))
	if !strings.Contains(buf.String(), `"type":"ConfigAdjustedWarning"`) {
		t.Errorf("warning not routed through zerolog: %s", buf.String())
	}

	if err := SetupLogger("verbose", &buf); err == nil {
		t.Error("unknown level should be rejected")
	}
}

func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l := testLogger.With(WorkerIDKey, id)
			for i := 0; i < 10; i++ {
				l.Info("bag trained", BagKey, id*10+i)
			}
		}(worker)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries: %v", err)
	}
	if len(entries) != 80 {
		t.Errorf("expected 80 entries, got %d", len(entries))
	}
}

func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)
	for i := 0; i < b.N; i++ {
		testLogger.Info("benchmark message", BagKey, i)
	}
}
