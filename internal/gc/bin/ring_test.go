package bin

import "testing"

// TestRingFIFO verifies push/pop ordering and emptiness transitions.
func TestRingFIFO(t *testing.T) {
	r := NewRing(8)

	if !r.IsEmpty() {
		t.Fatal("new ring should be empty")
	}
	if r.Pop() != nil {
		t.Fatal("Pop on empty ring should return nil")
	}
	if r.Peek() != nil {
		t.Fatal("Peek on empty ring should return nil")
	}

	items := make([]*Item, 5)
	for i := range items {
		items[i] = &Item{Payload: i, Class: Small}
		if !r.Push(items[i]) {
			t.Fatalf("Push %d failed on non-full ring", i)
		}
	}

	if got := r.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
	if got := r.Peek(); got != items[0] {
		t.Fatalf("Peek() = %v, want oldest item", got)
	}

	for i := range items {
		if got := r.Pop(); got != items[i] {
			t.Fatalf("Pop() #%d = %v, want %v", i, got, items[i])
		}
	}
	if !r.IsEmpty() {
		t.Fatal("ring should be empty after draining")
	}
}

// TestRingFull verifies the full condition and index wrap-around.
func TestRingFull(t *testing.T) {
	r := NewRing(4)

	// Cycle the indices past the physical capacity a few times.
	for cycle := 0; cycle < 3; cycle++ {
		for i := 0; i < 4; i++ {
			if !r.Push(&Item{Payload: i}) {
				t.Fatalf("cycle %d: Push %d failed", cycle, i)
			}
		}
		if r.Push(&Item{Payload: 99}) {
			t.Fatalf("cycle %d: Push succeeded on full ring", cycle)
		}
		if got := r.Len(); got != 4 {
			t.Fatalf("cycle %d: Len() = %d, want 4", cycle, got)
		}
		for i := 0; i < 4; i++ {
			if got := r.Pop(); got == nil || got.Payload.(int) != i {
				t.Fatalf("cycle %d: Pop() #%d = %v", cycle, i, got)
			}
		}
	}
}

// TestNewRingValidation verifies the power-of-2 precondition.
func TestNewRingValidation(t *testing.T) {
	for _, bad := range []uint64{0, 3, 6, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewRing(%d) should panic", bad)
				}
			}()
			NewRing(bad)
		}()
	}
}

// TestNewLocal verifies per-class sizing: physical capacity is twice the soft
// capacity so a spill always leaves headroom.
func TestNewLocal(t *testing.T) {
	tests := []struct {
		class   SizeClass
		wantCap int
	}{
		{Small, 2 * SmallSoftCap},
		{Medium, 2 * MediumSoftCap},
	}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			if got := NewLocal(tt.class).Cap(); got != tt.wantCap {
				t.Errorf("NewLocal(%v).Cap() = %d, want %d", tt.class, got, tt.wantCap)
			}
		})
	}
}

// TestSizeClassString covers the diagnostic names.
func TestSizeClassString(t *testing.T) {
	tests := []struct {
		class SizeClass
		want  string
	}{
		{Small, "small"},
		{Medium, "medium"},
		{Large, "large"},
		{SizeClass(7), "invalid"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("SizeClass(%d).String() = %q, want %q", tt.class, got, tt.want)
		}
	}
}
