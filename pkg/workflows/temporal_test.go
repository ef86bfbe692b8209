package workflows

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ghuser/salesledger/pkg/logger"
)

func TestTemporalLogger_ForwardsLevelsAndKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := temporalLogger{logger.NewWithWriter(&buf, "debug")}

	l.Debug("poll", "task_queue", "sales-orders")
	l.Info("started", "workflow_id", "cancel-order-1")
	l.Warn("retrying", "attempt", 2)
	l.Error("failed", "error", "lock timeout")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d: %s", len(lines), buf.String())
	}

	want := []struct{ level, msg, key string }{
		{"DEBUG", "poll", "task_queue"},
		{"INFO", "started", "workflow_id"},
		{"WARN", "retrying", "attempt"},
		{"ERROR", "failed", "error"},
	}
	for i, w := range want {
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if entry["level"] != w.level || entry["msg"] != w.msg {
			t.Errorf("line %d: got level=%v msg=%v", i, entry["level"], entry["msg"])
		}
		if _, ok := entry[w.key]; !ok {
			t.Errorf("line %d: missing key %q", i, w.key)
		}
	}
}
