package bus

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// tree is the tenant hierarchy: a single-parent tree rooted at a fixed root
// id, kept as two mirrored maps (child→parent and parent→children). All
// mutation goes through SetParent/Detach/Clear so the maps cannot drift.
// Not safe for concurrent use; the owning registry serializes access.
type tree struct {
	rootID   string
	parents  map[string]string
	children map[string]map[string]bool
}

func newTree(rootID string) *tree {
	t := &tree{rootID: rootID}
	t.Clear()
	return t
}

// SetParent links agentID under parentID, creating the parent's child-set if
// the parent has not registered yet. An empty parentID parents to the root.
// Re-linking an already-known agent drops the stale edge from its previous
// parent's child-set.
func (t *tree) SetParent(agentID, parentID string) {
	if agentID == t.rootID {
		return // the root is never parented, not even to itself
	}
	if parentID == "" {
		parentID = t.rootID
	}
	if prev, known := t.parents[agentID]; known {
		delete(t.children[prev], agentID)
	}

	t.parents[agentID] = parentID
	if t.children[parentID] == nil {
		t.children[parentID] = make(map[string]bool)
	}
	t.children[parentID][agentID] = true
}

// Detach removes agentID's edge to its parent. Descendants keep their own
// parent pointers, so the node stays traversable as a ghost.
func (t *tree) Detach(agentID string) {
	parent, known := t.parents[agentID]
	if !known {
		return
	}
	delete(t.children[parent], agentID)
	delete(t.parents, agentID)
}

func (t *tree) Parent(agentID string) (string, bool) {
	parent, ok := t.parents[agentID]
	return parent, ok
}

// Children returns the sorted child ids of parentID.
func (t *tree) Children(parentID string) []string {
	set := t.children[parentID]
	childIDs := make([]string, 0, len(set))
	for id := range set {
		childIDs = append(childIDs, id)
	}
	sort.Strings(childIDs)
	return childIDs
}

// Path returns the unique tree path from one agent to another, inclusive of
// both endpoints, found by breadth-first search over the children map. The
// visited set guards against loops should the maps ever become inconsistent.
// Returns nil when no path exists.
func (t *tree) Path(from, to string) []string {
	if from == to {
		if from == t.rootID || t.children[from] != nil || t.parents[from] != "" {
			return []string{from}
		}
		return nil
	}

	visited := map[string]bool{from: true}
	predecessor := make(map[string]string)
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range t.Children(current) {
			if visited[child] {
				continue
			}
			visited[child] = true
			predecessor[child] = current

			if child == to {
				path := []string{to}
				for node := to; node != from; {
					node = predecessor[node]
					path = append([]string{node}, path...)
				}
				return path
			}
			queue = append(queue, child)
		}
	}
	return nil
}

// Snapshot returns a copy of the child→parent map.
func (t *tree) Snapshot() map[string]string {
	return maps.Clone(t.parents)
}

// Len returns the number of parented agents, the root excluded.
func (t *tree) Len() int {
	return len(t.parents)
}

// Clear resets both maps and re-seeds the root's child-set.
func (t *tree) Clear() {
	t.parents = make(map[string]string)
	t.children = map[string]map[string]bool{
		t.rootID: make(map[string]bool),
	}
}

// Render writes a human-readable tree dump rooted at the root id. Nodes
// without a handler are marked as ghosts.
func (t *tree) Render(handlers map[string]Handler) string {
	var sb strings.Builder
	sb.WriteString(t.label(t.rootID, handlers))
	sb.WriteByte('\n')
	t.renderChildren(&sb, t.rootID, "", handlers)
	return sb.String()
}

func (t *tree) renderChildren(sb *strings.Builder, parentID, indent string, handlers map[string]Handler) {
	childIDs := t.Children(parentID)
	for i, childID := range childIDs {
		connector, childIndent := "├── ", indent+"│   "
		if i == len(childIDs)-1 {
			connector, childIndent = "└── ", indent+"    "
		}
		fmt.Fprintf(sb, "%s%s%s\n", indent, connector, t.label(childID, handlers))
		t.renderChildren(sb, childID, childIndent, handlers)
	}
}

func (t *tree) label(agentID string, handlers map[string]Handler) string {
	if _, ok := handlers[agentID]; ok {
		return agentID
	}
	return agentID + " (ghost)"
}
