package columnpage

import (
	"testing"

	"coldb/storage/page"
)

func freshFrame() *page.Frame {
	frame := page.NewFrame()
	Init(frame)
	return frame
}

func TestInitIsEmptyAndTailless(t *testing.T) {
	frame := freshFrame()

	if got := ValueCount(frame); got != 0 {
		t.Errorf("ValueCount after Init: expected 0, got %d", got)
	}
	if got := NextPageID(frame); got != page.InvalidID {
		t.Errorf("NextPageID after Init: expected InvalidID, got %d", got)
	}
	if IsFull(frame) {
		t.Errorf("a freshly initialized page should not be full")
	}
}

func TestAppendAndReadBack(t *testing.T) {
	frame := freshFrame()

	values := []int64{1, -2, 3, 4000000000, -9999999999}
	for _, v := range values {
		if err := Append(frame, v); err != nil {
			t.Fatalf("Append(%d): %v", v, err)
		}
	}

	if got := ValueCount(frame); got != uint32(len(values)) {
		t.Fatalf("ValueCount: expected %d, got %d", len(values), got)
	}
	for i, want := range values {
		if got := ValueAt(frame, uint32(i)); got != want {
			t.Errorf("ValueAt(%d): expected %d, got %d", i, want, got)
		}
	}
}

func TestAppendFailsWhenFull(t *testing.T) {
	frame := freshFrame()

	for i := 0; i < MaxValues; i++ {
		if err := Append(frame, int64(i)); err != nil {
			t.Fatalf("Append(%d): unexpected error: %v", i, err)
		}
	}
	if !IsFull(frame) {
		t.Fatalf("expected page to be full after %d appends", MaxValues)
	}
	if err := Append(frame, 123); err == nil {
		t.Errorf("expected error appending to a full page")
	}
}

func TestNextPageIDRoundTrip(t *testing.T) {
	frame := freshFrame()
	SetNextPageID(frame, page.ID(17))
	if got := NextPageID(frame); got != 17 {
		t.Errorf("NextPageID: expected 17, got %d", got)
	}
}
