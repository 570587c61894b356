package bus

import (
	"slices"
	"strings"
	"testing"
)

func TestTree_SetParent_DefaultsToRoot(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("agent-a", "")

	parent, ok := tr.Parent("agent-a")
	if !ok || parent != "root" {
		t.Errorf("Parent(agent-a) = %q, %v, want %q, true", parent, ok, "root")
	}
	if children := tr.Children("root"); !slices.Equal(children, []string{"agent-a"}) {
		t.Errorf("Children(root) = %v, want [agent-a]", children)
	}
}

func TestTree_SetParent_CreatesMissingParent(t *testing.T) {
	tr := newTree("root")

	// Child registers before its parent exists anywhere in the tree.
	tr.SetParent("specialist-1", "manager-a")

	if children := tr.Children("manager-a"); !slices.Equal(children, []string{"specialist-1"}) {
		t.Errorf("Children(manager-a) = %v, want [specialist-1]", children)
	}
}

func TestTree_SetParent_ReparentDropsStaleEdge(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("manager-a", "")
	tr.SetParent("manager-b", "")
	tr.SetParent("specialist-1", "manager-a")

	tr.SetParent("specialist-1", "manager-b")

	if children := tr.Children("manager-a"); len(children) != 0 {
		t.Errorf("Children(manager-a) = %v, want empty after reparent", children)
	}
	if children := tr.Children("manager-b"); !slices.Equal(children, []string{"specialist-1"}) {
		t.Errorf("Children(manager-b) = %v, want [specialist-1]", children)
	}
	if parent, _ := tr.Parent("specialist-1"); parent != "manager-b" {
		t.Errorf("Parent(specialist-1) = %q, want %q", parent, "manager-b")
	}
}

func TestTree_SetParent_RootIsNeverParented(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("root", "")

	if _, ok := tr.Parent("root"); ok {
		t.Error("root must not gain a parent pointer")
	}
	if children := tr.Children("root"); len(children) != 0 {
		t.Errorf("Children(root) = %v, want empty", children)
	}
}

func TestTree_Detach_LeavesGhost(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("manager-a", "")
	tr.SetParent("specialist-1", "manager-a")

	tr.Detach("manager-a")

	if _, ok := tr.Parent("manager-a"); ok {
		t.Error("detached node should have no parent pointer")
	}
	if children := tr.Children("root"); len(children) != 0 {
		t.Errorf("Children(root) = %v, want empty after detach", children)
	}
	// The descendant keeps its own parent pointer toward the ghost.
	if parent, ok := tr.Parent("specialist-1"); !ok || parent != "manager-a" {
		t.Errorf("Parent(specialist-1) = %q, %v, want manager-a, true", parent, ok)
	}
	if children := tr.Children("manager-a"); !slices.Equal(children, []string{"specialist-1"}) {
		t.Errorf("Children(manager-a) = %v, want [specialist-1]", children)
	}
}

func TestTree_Path(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("manager-a", "")
	tr.SetParent("manager-b", "")
	tr.SetParent("specialist-1", "manager-a")
	tr.SetParent("specialist-2", "manager-a")

	tests := []struct {
		name string
		from string
		to   string
		want []string
	}{
		{name: "root to leaf", from: "root", to: "specialist-1", want: []string{"root", "manager-a", "specialist-1"}},
		{name: "manager to leaf", from: "manager-a", to: "specialist-2", want: []string{"manager-a", "specialist-2"}},
		{name: "same node", from: "manager-a", to: "manager-a", want: []string{"manager-a"}},
		{name: "no downward path between siblings", from: "manager-b", to: "specialist-1", want: nil},
		{name: "unknown target", from: "root", to: "nobody", want: nil},
		{name: "unknown node to itself", from: "nobody", to: "nobody", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Path(tt.from, tt.to); !slices.Equal(got, tt.want) {
				t.Errorf("Path(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTree_Clear(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("manager-a", "")
	tr.SetParent("specialist-1", "manager-a")

	tr.Clear()

	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after clear", tr.Len())
	}
	if tr.children["root"] == nil {
		t.Error("root child-set must be re-seeded after clear")
	}
}

func TestTree_Render(t *testing.T) {
	tr := newTree("root")
	tr.SetParent("manager-a", "")
	tr.SetParent("specialist-1", "manager-a")

	handlers := map[string]Handler{"specialist-1": nil}
	out := tr.Render(handlers)

	if !strings.Contains(out, "root (ghost)") {
		t.Errorf("render should mark root without handler as ghost:\n%s", out)
	}
	if !strings.Contains(out, "manager-a (ghost)") {
		t.Errorf("render should mark manager-a as ghost:\n%s", out)
	}
	if !strings.Contains(out, "└── specialist-1\n") {
		t.Errorf("render should show specialist-1 as a non-ghost leaf:\n%s", out)
	}
}
