package id

import (
	"strings"
	"testing"
)

func TestGenerate_Format(t *testing.T) {
	got := Generate()
	if !strings.HasPrefix(got, "job-") {
		t.Errorf("expected job- prefix, got %s", got)
	}
	if len(strings.Split(got, "-")) != 4 {
		t.Errorf("expected job-<timestamp>-<sequence>-<random>, got %s", got)
	}
}

func TestGenerate_UniqueUnderRapidCalls(t *testing.T) {
	const n = 10000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerate_UniqueUnderConcurrency(t *testing.T) {
	const workers = 8
	const perWorker = 500

	ch := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				ch <- Generate()
			}
		}()
	}

	seen := make(map[string]bool, workers*perWorker)
	for i := 0; i < workers*perWorker; i++ {
		id := <-ch
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
