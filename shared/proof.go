package shared

import (
	"fmt"
)

// Position tells on which side of the running hash a sibling digest is concatenated.
type Position string

const (
	Left  Position = "left"
	Right Position = "right"
)

func (p Position) Valid() bool {
	return p == Left || p == Right
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid proof position %q; expected: %q or %q", string(p), Left, Right)
	}
	return []byte(p), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	pos := Position(text)
	if !pos.Valid() {
		return fmt.Errorf("invalid proof position %q; expected: %q or %q", string(text), Left, Right)
	}
	*p = pos
	return nil
}

// ProofStep is a single sibling on the path from a leaf to the root.
// Data is the sibling digest in lowercase hex, as published by the service.
type ProofStep struct {
	Position Position `json:"position"`
	Data     string   `json:"data"`
}

// Proof is ordered from the leaf's sibling up to the step adjacent to the root.
type Proof []ProofStep
