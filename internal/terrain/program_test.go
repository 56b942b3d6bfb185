package terrain

import (
	"strings"
	"testing"
)

func TestProgramBindsEverySlot(t *testing.T) {
	p := Program()
	for slot, name := range p.Blocks {
		if !strings.Contains(p.Vertex, "uniform "+name) {
			t.Errorf("block %d (%s) not declared in vertex shader", slot, name)
		}
	}
	if !strings.Contains(p.Vertex, "sampler2D "+p.Samplers[DEMTextureSlot]) {
		t.Error("DEM sampler missing from vertex shader")
	}
	if !strings.Contains(p.Fragment, "sampler2D "+p.Samplers[MapTextureSlot]) {
		t.Error("map sampler missing from fragment shader")
	}
	for _, attr := range mustMesh(t).Attributes() {
		if !strings.Contains(p.Vertex, "in vec2 "+attr.Name) {
			t.Errorf("attribute %s not declared", attr.Name)
		}
	}
}

func mustMesh(t *testing.T) *Mesh {
	t.Helper()
	m, err := GenerateMesh(2, LayoutPositionTexCoord)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
