package merkle

import (
	"errors"
	"fmt"

	"github.com/rulerunner/rulerunner-go/shared"
)

var (
	ErrEmptyTree    = errors.New("tree has no leaves")
	ErrLeafNotFound = errors.New("address is not a leaf of the tree")
)

// Tree is a sanctions list tree in the service's layout. Leaves keep insertion order,
// each layer pairs nodes left to right and a trailing odd node moves up unchanged.
type Tree struct {
	layers [][]string
	index  map[string]int
}

func NewTree(addresses []string, opts ...TreeOption) (*Tree, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyTree
	}
	o := &treeOption{hash: Sha256Hex}
	for _, opt := range opts {
		opt(o)
	}

	t := &Tree{index: make(map[string]int, len(addresses))}
	leaves := make([]string, len(addresses))
	for i, addr := range addresses {
		leaf, err := LeafHash(o.hash, addr)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leaves[i] = leaf
		key := NormalizeAddress(addr)
		if _, ok := t.index[key]; !ok {
			t.index[key] = i
		}
	}
	t.layers = append(t.layers, leaves)

	for layer := leaves; len(layer) > 1; {
		next := make([]string, 0, (len(layer)+1)/2)
		for i := 0; i+1 < len(layer); i += 2 {
			parent, err := ParentHash(o.hash, layer[i], layer[i+1])
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", len(t.layers), err)
			}
			next = append(next, parent)
		}
		if len(layer)%2 == 1 {
			next = append(next, layer[len(layer)-1])
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t, nil
}

func (t *Tree) Root() string {
	return t.layers[len(t.layers)-1][0]
}

func (t *Tree) Len() int {
	return len(t.layers[0])
}

// Proof returns the path of siblings from the leaf of address to the root.
func (t *Tree) Proof(address string) (shared.Proof, error) {
	idx, ok := t.index[NormalizeAddress(address)]
	if !ok {
		return nil, ErrLeafNotFound
	}
	proof := shared.Proof{}
	for _, layer := range t.layers[:len(t.layers)-1] {
		switch {
		case idx%2 == 1:
			proof = append(proof, shared.ProofStep{Position: shared.Left, Data: layer[idx-1]})
		case idx+1 < len(layer):
			proof = append(proof, shared.ProofStep{Position: shared.Right, Data: layer[idx+1]})
		}
		// a promoted odd node has no sibling in this layer
		idx /= 2
	}
	return proof, nil
}

type treeOption struct {
	hash HashFunc
}

type TreeOption func(*treeOption)

func WithTreeHashFunc(hash HashFunc) TreeOption {
	return func(o *treeOption) {
		o.hash = hash
	}
}
