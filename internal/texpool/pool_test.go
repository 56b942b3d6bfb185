package texpool

import (
	"testing"

	"github.com/Faultbox/relief/internal/gfx/headless"
	"github.com/Faultbox/relief/pkg/tile"
)

func TestCreateAndLookup(t *testing.T) {
	ctx := headless.New()
	p := New(ctx, 64)

	id := tile.New(5, 3, 3)
	if _, ok := p.RenderTarget(id); ok {
		t.Fatal("empty pool should not have a target")
	}

	rt, err := p.CreateRenderTarget(id)
	if err != nil {
		t.Fatalf("CreateRenderTarget failed: %v", err)
	}
	if w, h := rt.Size(); w != 64 || h != 64 {
		t.Errorf("expected 64x64 target, got %dx%d", w, h)
	}

	got, ok := p.RenderTarget(id)
	if !ok || got != rt {
		t.Error("exact lookup should return the created target")
	}
	if _, ok := p.RenderTarget(tile.New(5, 3, 4)); ok {
		t.Error("lookup of a neighbour should fail")
	}
}

func TestCreateOverwrites(t *testing.T) {
	ctx := headless.New()
	p := New(ctx, 16)
	id := tile.New(2, 1, 1)

	first, _ := p.CreateRenderTarget(id)
	second, _ := p.CreateRenderTarget(id)

	if p.Len() != 1 {
		t.Errorf("expected one target, got %d", p.Len())
	}
	if !first.(*headless.RenderTarget).Released() {
		t.Error("replaced target should be released")
	}
	if got, _ := p.RenderTarget(id); got != second {
		t.Error("lookup should return the newest target")
	}
	if ctx.Stats().RenderTargets != 1 {
		t.Errorf("expected 1 live target, got %d", ctx.Stats().RenderTargets)
	}
}

func TestAncestorOrDescendant(t *testing.T) {
	parent := tile.New(5, 3, 3)
	child := tile.New(6, 7, 6)
	grandchild := tile.New(7, 14, 13)
	unrelated := tile.New(6, 0, 0)

	tests := []struct {
		name       string
		registered []tile.ID
		query      tile.ID
		want       tile.ID
		wantOK     bool
	}{
		{"empty", nil, parent, tile.ID{}, false},
		{"exact", []tile.ID{parent}, parent, parent, true},
		{"ancestor", []tile.ID{parent}, child, parent, true},
		{"descendant", []tile.ID{child}, parent, child, true},
		{"prefer finer over exact", []tile.ID{parent, child}, parent, child, true},
		{"prefer finer ancestor", []tile.ID{parent, child}, grandchild, child, true},
		{"deepest descendant", []tile.ID{child, grandchild}, parent, grandchild, true},
		{"unrelated ignored", []tile.ID{unrelated}, parent, tile.ID{}, false},
		{"sibling ignored", []tile.ID{tile.New(6, 6, 6)}, child, tile.ID{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(headless.New(), 8)
			for _, id := range tt.registered {
				if _, err := p.CreateRenderTarget(id); err != nil {
					t.Fatalf("CreateRenderTarget(%s) failed: %v", id, err)
				}
			}

			rt, got, ok := p.AncestorOrDescendantID(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("matched %s, want %s", got, tt.want)
			}
			if want, _ := p.RenderTarget(tt.want); rt != want {
				t.Error("returned target does not belong to the matched tile")
			}
			if _, ok := p.AncestorOrDescendant(tt.query); !ok {
				t.Error("AncestorOrDescendant disagrees with the ID variant")
			}
		})
	}
}

func TestStableTieBreak(t *testing.T) {
	p := New(headless.New(), 8)
	parent := tile.New(3, 1, 1)
	for _, c := range parent.Children() {
		p.CreateRenderTarget(c)
	}

	_, first, _ := p.AncestorOrDescendantID(parent)
	for i := 0; i < 20; i++ {
		if _, got, _ := p.AncestorOrDescendantID(parent); got != first {
			t.Fatalf("tie-break not stable: %s then %s", first, got)
		}
	}
	if first != parent.Children()[0] {
		t.Errorf("expected top-left child, got %s", first)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := headless.New()
	p := New(ctx, 8)
	a, b := tile.New(1, 0, 0), tile.New(1, 1, 0)
	p.CreateRenderTarget(a)
	p.CreateRenderTarget(b)

	ids := p.IDs()
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("unexpected IDs: %v", ids)
	}

	if !p.Remove(a) {
		t.Error("Remove should report an existing target")
	}
	if p.Remove(a) {
		t.Error("second Remove should report nothing removed")
	}

	p.Clear()
	if p.Len() != 0 || ctx.Stats().RenderTargets != 0 {
		t.Errorf("Clear left %d targets, %d live", p.Len(), ctx.Stats().RenderTargets)
	}
}
