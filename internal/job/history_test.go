package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestHistory_InsertPrependsNewestFirst(t *testing.T) {
	h := NewHistory()

	first := New("first", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	second := New("second", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	third := New("third", ModelVeo2, TypeTextToVideo, OrientationHorizontal)

	for _, j := range []*Job{first, second, third} {
		if err := h.Insert(j); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	list := h.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	if list[0].Prompt != "third" || list[1].Prompt != "second" || list[2].Prompt != "first" {
		t.Errorf("expected newest-first ordering, got %s, %s, %s",
			list[0].Prompt, list[1].Prompt, list[2].Prompt)
	}
}

func TestHistory_InsertDuplicateID(t *testing.T) {
	h := NewHistory()
	j := New("p", ModelVeo2, TypeTextToVideo, OrientationHorizontal)

	if err := h.Insert(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Insert(j); err == nil {
		t.Error("expected error for duplicate ID")
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 record, got %d", h.Len())
	}
}

func TestHistory_UpdatePreservesPosition(t *testing.T) {
	h := NewHistory()

	older := New("older", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	newer := New("newer", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	_ = h.Insert(older)
	_ = h.Insert(newer)

	// Settle the older job; its position must not change.
	settled, err := h.Find(older.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := settled.Complete("artifact-1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Update(settled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := h.List()
	if list[0].ID != newer.ID {
		t.Error("update must not reorder records")
	}
	if list[1].Status != StatusCompleted || list[1].ArtifactID != "artifact-1" {
		t.Errorf("expected settled record in place, got status %s", list[1].Status)
	}
}

func TestHistory_UpdateUnknownID(t *testing.T) {
	h := NewHistory()
	j := New("p", ModelVeo2, TypeTextToVideo, OrientationHorizontal)

	if err := h.Update(j); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestHistory_FindReturnsClone(t *testing.T) {
	h := NewHistory()
	j := New("p", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	_ = h.Insert(j)

	found, err := h.Find(j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Settling the returned clone must not affect the stored record until
	// Update is called.
	if err := found.Fail("local only"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := h.Find(j.ID)
	if stored.Status != StatusProcessing {
		t.Error("mutating a Find result must not touch the store")
	}
}

func TestHistory_ConcurrentUpdatesByID(t *testing.T) {
	h := NewHistory()

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		j := New(fmt.Sprintf("prompt-%d", i), ModelVeo2, TypeTextToVideo, OrientationHorizontal)
		if err := h.Insert(j); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, j.ID)
	}

	// Each worker settles its own job while readers iterate the store.
	var wg sync.WaitGroup
	for i, jobID := range ids {
		wg.Add(1)
		go func(i int, jobID string) {
			defer wg.Done()
			j, err := h.Find(jobID)
			if err != nil {
				t.Errorf("find %s: %v", jobID, err)
				return
			}
			if i%2 == 0 {
				_ = j.Complete(fmt.Sprintf("artifact-%d", i), false)
			} else {
				_ = j.Fail("boom")
			}
			if err := h.Update(j); err != nil {
				t.Errorf("update %s: %v", jobID, err)
			}
		}(i, jobID)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.List()
		}()
	}
	wg.Wait()

	list := h.List()
	if len(list) != n {
		t.Fatalf("expected %d records, got %d", n, len(list))
	}
	for _, rec := range list {
		if rec.Status != StatusCompleted && rec.Status != StatusFailed {
			t.Errorf("record %s not settled: %s", rec.ID, rec.Status)
		}
	}
}

func TestHistory_ClearReleasesHandles(t *testing.T) {
	h := NewHistory()

	withArtifact := New("p", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	_ = h.Insert(withArtifact)
	settled, _ := h.Find(withArtifact.ID)
	_ = settled.Complete("artifact-1", false)
	_ = h.Update(settled)

	failed := New("p", ModelVeo2, TypeTextToVideo, OrientationHorizontal)
	_ = h.Insert(failed)
	settledFailed, _ := h.Find(failed.ID)
	_ = settledFailed.Fail("boom")
	_ = h.Update(settledFailed)

	var released []string
	err := h.Clear(context.Background(), func(_ context.Context, artifactID string) error {
		released = append(released, artifactID)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d records", h.Len())
	}
	if len(released) != 1 || released[0] != "artifact-1" {
		t.Errorf("expected exactly the owned handle released, got %v", released)
	}
}
