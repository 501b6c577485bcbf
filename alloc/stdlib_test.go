package alloc

import "testing"

func TestStdlibAllocateReturnsUsableMemory(t *testing.T) {
	a := NewStdlib()

	ptr, err := a.Allocate(64, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if ptr == nil {
		t.Fatalf("expected a non-nil pointer")
	}
	if got := a.UsedMemory(); got != 64 {
		t.Fatalf("expected UsedMemory=64 after one 64-byte allocation, got %d", got)
	}

	if _, err := a.Allocate(32, 8); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := a.UsedMemory(); got != 96 {
		t.Fatalf("expected UsedMemory=96 after a second 32-byte allocation, got %d", got)
	}
	if got := a.TotalMemory(); got != a.UsedMemory() {
		t.Fatalf("expected TotalMemory to mirror UsedMemory for a GC-backed allocator, got %d vs %d", got, a.UsedMemory())
	}
}

func TestStdlibDeallocateDoesNotReduceUsedMemory(t *testing.T) {
	a := NewStdlib()
	ptr, err := a.Allocate(16, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	a.Deallocate(ptr)
	if got := a.UsedMemory(); got != 16 {
		t.Fatalf("expected Deallocate to be a no-op for used-memory accounting, got %d", got)
	}
}

func TestStdlibResetIsUnsupported(t *testing.T) {
	a := NewStdlib()
	if err := a.Reset(); err != ErrResetUnsupported {
		t.Fatalf("expected ErrResetUnsupported, got %v", err)
	}
}

func TestStdlibName(t *testing.T) {
	a := NewStdlib()
	if a.Name() != "stdlib" {
		t.Fatalf("expected Name()=stdlib, got %q", a.Name())
	}
}
