package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}
	if got := clock.NowFunc()(); !got.Equal(updated) {
		t.Fatalf("expected NowFunc to observe the advanced time, got %v", got)
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("")
	if first, second := gen.Next(), gen.Next(); first != "id-1" || second != "id-2" {
		t.Fatalf("unexpected sequence %q, %q", first, second)
	}
}
