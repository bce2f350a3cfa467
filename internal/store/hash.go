package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeSourceHash returns the hex SHA-256 of source content.
func ComputeSourceHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// ComputeDumpHash computes a deterministic hash over the emitted nodes.
// Two dumps with the same hash emitted the same nodes in the same order.
func ComputeDumpHash(nodes []DumpNode) string {
	h := sha256.New()
	for _, n := range nodes {
		fmt.Fprintf(h, "%d:%s:%t:%s\n", n.Depth, n.Kind, n.Named, n.Field)
		fmt.Fprintf(h, "range:%d:%d:%d:%d:%d:%d\n", n.StartByte, n.EndByte, n.StartRow, n.StartCol, n.EndRow, n.EndCol)
		fmt.Fprintf(h, "flags:%t:%t:%t\n", n.Leaf, n.HasError, n.Missing)
		fmt.Fprintf(h, "text:%d:%s\n", len(n.Text), n.Text)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
