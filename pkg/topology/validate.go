package topology

import "github.com/matzehuels/meshmap/pkg/errors"

// Validate checks that node IDs are well formed and unique and that every
// link references known nodes.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n == nil {
			return errors.New(errors.ErrCodeInvalidTopology, "nil node")
		}
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidTopology, "duplicate node %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, l := range g.Links {
		if l == nil {
			return errors.New(errors.ErrCodeInvalidTopology, "nil link at index %d", i)
		}
		if _, ok := seen[l.Source]; !ok {
			return errors.New(errors.ErrCodeInvalidTopology, "link %d: unknown source %q", i, l.Source)
		}
		if _, ok := seen[l.Target]; !ok {
			return errors.New(errors.ErrCodeInvalidTopology, "link %d: unknown target %q", i, l.Target)
		}
	}
	return nil
}
