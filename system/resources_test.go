package system

import "testing"

type gameClock struct{ Elapsed float64 }

func TestResourceSetGetRoundTrip(t *testing.T) {
	r := NewResources()
	SetResource(r, gameClock{Elapsed: 1.5})
	got, ok := GetResource[gameClock](r)
	if !ok || got.Elapsed != 1.5 {
		t.Fatalf("expected resource round-trip, got %+v ok=%v", got, ok)
	}
}

func TestResourceMissingReturnsFalse(t *testing.T) {
	r := NewResources()
	if _, ok := GetResource[gameClock](r); ok {
		t.Fatalf("expected missing resource to report false")
	}
}

func TestResourceRemove(t *testing.T) {
	r := NewResources()
	SetResource(r, gameClock{Elapsed: 1})
	RemoveResource[gameClock](r)
	if HasResource[gameClock](r) {
		t.Fatalf("expected resource removed")
	}
}

func TestResourceSetOverwrites(t *testing.T) {
	r := NewResources()
	SetResource(r, gameClock{Elapsed: 1})
	SetResource(r, gameClock{Elapsed: 2})
	got, _ := GetResource[gameClock](r)
	if got.Elapsed != 2 {
		t.Fatalf("expected second Set to overwrite, got %+v", got)
	}
}
