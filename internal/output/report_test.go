package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmakesmoke/internal/smoke"
)

func TestReportSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	s, err := NewReportSink(path)
	if err != nil {
		t.Fatalf("NewReportSink: %v", err)
	}
	writeAll(t, s, sampleRun())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	report := string(data)
	for _, want := range []string{
		"# cmakesmoke Report",
		"| Files | 3 |",
		"| Passed | 2 |",
		"| Failed | 1 |",
		"| Slow (> 100ms) | 1 |",
		"| Exit code | 1 |",
		"- `tests/b/CMakeLists.txt`",
		"| `tests/c/CMakeLists.txt` | 150ms |",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRenderReport_NoSummary(t *testing.T) {
	got := renderReport(nil, 0, false)
	if !strings.Contains(got, "did not complete") {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestRenderReport_SlowSortedAndCapped(t *testing.T) {
	sum := &smoke.Summary{ThresholdMs: 100}
	for i := 0; i < slowestShown+5; i++ {
		sum.Slow = append(sum.Slow, smoke.SlowFile{File: fmt.Sprintf("f%d", i), DurationMillis: int64(101 + i)})
	}
	got := renderReport(sum, 0, false)

	first := strings.Index(got, fmt.Sprintf("`f%d`", slowestShown+4))
	second := strings.Index(got, fmt.Sprintf("`f%d`", slowestShown+3))
	if first < 0 || second < 0 || first > second {
		t.Fatal("slow files should be listed slowest first")
	}
	if !strings.Contains(got, "_5 more not shown._") {
		t.Fatalf("expected truncation note:\n%s", got)
	}
	if strings.Contains(got, "Exit code") {
		t.Fatal("exit code row should be omitted when unknown")
	}
}

func TestNewReportSink_EmptyPath(t *testing.T) {
	if _, err := NewReportSink(""); err == nil {
		t.Fatal("expected error")
	}
}
