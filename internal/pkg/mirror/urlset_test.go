package mirror

import (
	"fmt"
	"sync"
	"testing"
)

func TestURLSetAddOnce(t *testing.T) {
	set := NewURLSet()

	if !set.Add("https://example.test/a.png") {
		t.Error("first Add should report insertion")
	}
	if set.Add("https://example.test/a.png") {
		t.Error("second Add should report the entry as already present")
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestURLSetConcurrentAdd(t *testing.T) {
	set := NewURLSet()

	const goroutines = 32
	var wg sync.WaitGroup
	inserted := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted <- set.Add("https://example.test/shared.png")
		}()
	}
	wg.Wait()
	close(inserted)

	var wins int
	for ok := range inserted {
		if ok {
			wins++
		}
	}

	if wins != 1 {
		t.Errorf("exactly one Add should win, got %d", wins)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestURLSetSnapshotIsACopy(t *testing.T) {
	set := NewURLSet()
	for i := 0; i < 3; i++ {
		set.Add(fmt.Sprintf("https://example.test/%d.png", i))
	}

	snapshot := set.Snapshot()
	set.Add("https://example.test/late.png")

	if len(snapshot) != 3 {
		t.Errorf("snapshot length = %d, want 3", len(snapshot))
	}
}

func TestResolvedMapFirstWriteWins(t *testing.T) {
	resolved := NewResolvedMap()

	resolved.Set("https://example.test/a.png", "example.test/img/a.png")
	resolved.Set("https://example.test/a.png", "example.test/img/other.png")

	localPath, found := resolved.Get("https://example.test/a.png")
	if !found {
		t.Fatal("entry should exist")
	}
	if localPath != "example.test/img/a.png" {
		t.Errorf("Get() = %q, want first written value", localPath)
	}
	if resolved.Len() != 1 {
		t.Errorf("Len() = %d, want 1", resolved.Len())
	}
}
