package tooltip

import (
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

func TestLines(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seen := now.Add(-3 * time.Minute)
	tip := &Tooltip{Now: func() time.Time { return now }}

	tests := []struct {
		name string
		dev  topology.Device
		want []string
	}{
		{
			name: "full",
			dev: topology.Device{
				IEEEAddr:         "0x00124b0001",
				FriendlyName:     "kitchen plug",
				Type:             topology.Router,
				NetworkAddress:   0x1a2b,
				ManufacturerName: "IKEA",
				ModelID:          "E1603",
				LastSeen:         &seen,
			},
			want: []string{"kitchen plug", "0x00124b0001", "Router (0x1a2b)", "IKEA E1603", "last seen 3 minutes ago"},
		},
		{
			name: "bare",
			dev:  topology.Device{IEEEAddr: "0xabc"},
			want: []string{"0xabc", "Unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tip.Lines(&topology.Node{Device: tt.dev})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHiddenIsEmpty(t *testing.T) {
	var tip Tooltip
	if vn := tip.Render(); len(vn.Children) != 0 {
		t.Errorf("hidden tooltip has %d children", len(vn.Children))
	}
}

func TestRenderFollowsNode(t *testing.T) {
	n := &topology.Node{ID: "a", X: 100, Y: 50, Device: topology.Device{IEEEAddr: "0xa", Type: topology.EndDevice}}
	var tip Tooltip
	tip.Show(n)

	vn := tip.Render()
	if len(vn.Children) != 3 {
		t.Fatalf("children = %d, want rect + 2 lines", len(vn.Children))
	}
	bg := vn.Children[0]
	if bg.X != 116 || bg.Y != 42 {
		t.Errorf("box at (%v, %v), want (116, 42)", bg.X, bg.Y)
	}
	for i, c := range vn.Children {
		if c.Hit != scene.NoHit {
			t.Errorf("child %d takes part in hit testing", i)
		}
	}
}

func TestHideOnlyCurrent(t *testing.T) {
	a := &topology.Node{ID: "a"}
	b := &topology.Node{ID: "b"}
	var tip Tooltip

	tip.Show(a)
	tip.Show(b)
	tip.Hide(a)
	if tip.Node() != b {
		t.Error("hiding a stale node must keep the current one")
	}
	tip.Hide(b)
	if tip.Node() != nil {
		t.Error("Hide should clear the current node")
	}
}
