package merkle

import (
	"fmt"

	"github.com/rulerunner/rulerunner-go/shared"
)

// ComputeRoot walks proof from the leaf of address up and returns the resulting root.
func ComputeRoot(hash HashFunc, address string, proof shared.Proof) (string, error) {
	current, err := LeafHash(hash, address)
	if err != nil {
		return "", fmt.Errorf("leaf: %w", err)
	}
	for i, step := range proof {
		switch step.Position {
		case shared.Left:
			current, err = ParentHash(hash, step.Data, current)
		case shared.Right:
			current, err = ParentHash(hash, current, step.Data)
		default:
			return "", fmt.Errorf("step %d: unexpected position %q", i, string(step.Position))
		}
		if err != nil {
			return "", fmt.Errorf("step %d: %w", i, err)
		}
	}
	return current, nil
}
