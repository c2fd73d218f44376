package service

import (
	"testing"
	"time"

	"opncheck-backend/cache"
)

func newTestTracker() *ProgressTracker {
	return NewProgressTracker(cache.NewSessionCache(time.Minute))
}

func TestProgressTrackerMonotonic(t *testing.T) {
	tr := newTestTracker()

	tr.Update("s1", 3, 7, "tretji korak", 40)
	tr.Update("s1", 2, 7, "zamudnik", 20)

	p, found := tr.Status("s1")
	if !found {
		t.Fatal("expected progress for s1")
	}
	if p.Step != 3 || p.Percentage != 40 {
		t.Errorf("backward update applied: step=%d pct=%d", p.Step, p.Percentage)
	}

	// Same step, lower percentage: percentage keeps its high-water mark.
	tr.Update("s1", 3, 7, "vzporedni sklop", 35)
	p, _ = tr.Status("s1")
	if p.Percentage != 40 {
		t.Errorf("percentage regressed to %d", p.Percentage)
	}
	if p.Message != "vzporedni sklop" {
		t.Errorf("same-step update should refresh message, got %q", p.Message)
	}
}

func TestProgressTrackerCompleteIsTerminal(t *testing.T) {
	tr := newTestTracker()

	tr.Update("s1", 5, 7, "skoraj", 80)
	tr.Complete("s1", 7, "Analiza zaključena.")
	tr.Update("s1", 6, 7, "zamudnik", 95)
	tr.Fail("s1", "prepozno")

	p, _ := tr.Status("s1")
	if !p.Completed || p.Error {
		t.Errorf("terminal state changed after completion: %+v", p)
	}
	if p.Percentage != 100 || p.Step != 7 {
		t.Errorf("unexpected terminal snapshot: %+v", p)
	}
}

func TestProgressTrackerFailIsTerminal(t *testing.T) {
	tr := newTestTracker()

	tr.Update("s1", 4, 7, "analiza", 50)
	tr.Fail("s1", "Napaka pri analizi.")
	tr.Update("s1", 5, 7, "zamudnik", 70)
	tr.Complete("s1", 7, "prepozno")

	p, _ := tr.Status("s1")
	if !p.Error || !p.Completed {
		t.Errorf("failure should be terminal with error set: %+v", p)
	}
	if p.Step != 4 {
		t.Errorf("failure should keep the last step reached, got %d", p.Step)
	}
	if p.Message != "Napaka pri analizi." {
		t.Errorf("unexpected failure message %q", p.Message)
	}
}

func TestProgressTrackerFailWithoutPriorProgress(t *testing.T) {
	tr := newTestTracker()
	tr.Fail("s1", "takojšnja napaka")

	p, found := tr.Status("s1")
	if !found || !p.Error {
		t.Fatalf("expected failed progress, got %+v (found=%v)", p, found)
	}
}

func TestProgressTrackerUnknownSession(t *testing.T) {
	tr := newTestTracker()
	if _, found := tr.Status("neznana"); found {
		t.Error("expected no progress for unknown session")
	}
}
