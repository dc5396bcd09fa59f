package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePriorityFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write priority file: %v", err)
	}
	return path
}

func TestLoadSourcePriorities(t *testing.T) {
	path := writePriorityFile(t, `
default: 0.4
domains:
  example.org: 0.9
  news.example.com: 0.7
`)

	sp, err := LoadSourcePriorities(path)
	if err != nil {
		t.Fatalf("LoadSourcePriorities: %v", err)
	}

	cases := []struct {
		url  string
		want float64
	}{
		{"https://example.org/article/1", 0.9},
		{"https://blog.example.org/post", 0.9},
		{"https://news.example.com/today", 0.7},
		{"https://other.example.com/today", 0.4},
		{"https://unknown.net/", 0.4},
		{"not a url", 0.4},
	}
	for _, tc := range cases {
		if got := sp.PriorityFor(tc.url); got != tc.want {
			t.Errorf("PriorityFor(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestLoadSourcePrioritiesRejectsOutOfRange(t *testing.T) {
	path := writePriorityFile(t, `
default: 0.5
domains:
  example.org: 1.5
`)
	if _, err := LoadSourcePriorities(path); err == nil {
		t.Fatal("expected error for out-of-range weight")
	}
}

func TestPriorityForNilTable(t *testing.T) {
	var sp *SourcePriorities
	if got := sp.PriorityFor("https://example.org/"); got != DefaultSourcePriority {
		t.Errorf("nil table priority = %v, want %v", got, DefaultSourcePriority)
	}
}
