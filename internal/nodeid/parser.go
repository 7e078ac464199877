// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"strings"
)

// ValidateGraphID checks that a graph id can be used as the first part of a
// scoped id.
func ValidateGraphID(graphID string) error {
	if graphID == "" {
		return fmt.Errorf("graph id cannot be empty")
	}
	if strings.Contains(graphID, Separator) {
		return fmt.Errorf("graph id %q must not contain %q", graphID, Separator)
	}
	return nil
}

// Parse creates a ScopedID from its canonical string representation. The
// graph part ends at the first separator; everything after it is the node id.
func Parse(rawID string) (ScopedID, error) {
	if rawID == "" {
		return ScopedID{}, fmt.Errorf("identifier cannot be empty")
	}

	graphID, nodeID, found := strings.Cut(rawID, Separator)
	if !found {
		return ScopedID{}, fmt.Errorf("identifier %q is missing the %q separator", rawID, Separator)
	}
	if err := ValidateGraphID(graphID); err != nil {
		return ScopedID{}, err
	}
	if nodeID == "" {
		return ScopedID{}, fmt.Errorf("identifier %q has an empty node part", rawID)
	}

	return ScopedID{Graph: graphID, Node: nodeID}, nil
}
