package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSON_WritesIndentedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")

	if err := JSON(path, map[string]any{"name": "service-basket", "rows": 3}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["name"] != "service-basket" {
		t.Errorf("decoded = %v", decoded)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestTimestampedFilename(t *testing.T) {
	got := TimestampedFilename("reports", "monthly-trend")
	if !strings.HasPrefix(got, filepath.Join("reports", "monthly-trend_")) {
		t.Errorf("filename = %q", got)
	}
	if !strings.HasSuffix(got, ".json") {
		t.Errorf("filename = %q, want .json suffix", got)
	}
}
