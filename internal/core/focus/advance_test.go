package focus

import (
	"testing"

	"github.com/example/controlcard/internal/core/grid"
)

func TestNext_AllPositions(t *testing.T) {
	for _, n := range []int{grid.DefaultRows, grid.LargeRows} {
		for r := 1; r <= n; r++ {
			for c := 1; c <= grid.Columns; c++ {
				next, ok := Next(n, grid.Position{Row: r, Col: c})
				switch {
				case c < grid.Columns:
					if !ok || next != (grid.Position{Row: r, Col: c + 1}) {
						t.Fatalf("N=%d (%d,%d): got %v ok=%v, want (%d,%d)", n, r, c, next, ok, r, c+1)
					}
				case r < n:
					if !ok || next != (grid.Position{Row: r + 1, Col: 1}) {
						t.Fatalf("N=%d (%d,%d): got %v ok=%v, want (%d,1)", n, r, c, next, ok, r+1)
					}
				default:
					if ok {
						t.Fatalf("N=%d (%d,%d): got %v, want none", n, r, c, next)
					}
				}
			}
		}
	}
}

func TestPointer_Advance(t *testing.T) {
	var p Pointer
	if _, ok := p.Get(); ok {
		t.Fatal("zero pointer should be unfocused")
	}

	p.Advance(2, grid.Position{Row: 1, Col: 4})
	if pos, ok := p.Get(); !ok || pos != (grid.Position{Row: 2, Col: 1}) {
		t.Errorf("got %v ok=%v, want 2:1", pos, ok)
	}

	p.Advance(2, grid.Position{Row: 2, Col: 4})
	if _, ok := p.Get(); ok {
		t.Error("expected focus cleared after last cell")
	}
}

func TestPointer_Move(t *testing.T) {
	var p Pointer
	p.Move(30, 1, 0)
	if pos, _ := p.Get(); pos != (grid.Position{Row: 1, Col: 1}) {
		t.Fatalf("first move should focus 1:1, got %v", pos)
	}

	p.Move(30, -1, -1)
	if pos, _ := p.Get(); pos != (grid.Position{Row: 1, Col: 1}) {
		t.Errorf("expected clamp at 1:1, got %v", pos)
	}

	p.Set(grid.Position{Row: 30, Col: 4})
	p.Move(30, 1, 1)
	if pos, _ := p.Get(); pos != (grid.Position{Row: 30, Col: 4}) {
		t.Errorf("expected clamp at 30:4, got %v", pos)
	}
}
