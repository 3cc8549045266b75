package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulerunner/rulerunner-go/merkle"
	"github.com/rulerunner/rulerunner-go/shared"
)

// treeFile is the JSON written by the tree command and accepted by verify.
type treeFile struct {
	MerkleRoot string                  `json:"merkle_root"`
	Proofs     map[string]shared.Proof `json:"proofs"`
}

func newTreeCmd() *cobra.Command {
	var (
		addrFile string
		outFile  string
	)

	treeCmd := &cobra.Command{
		Use:   "tree [address...]",
		Short: "Build a sanctions tree and print its root and proofs",
		Long: `tree builds a Merkle tree over the given addresses in the layout used by the
compliance service and writes the root together with a proof for every address.
The output can be passed to "rrcli verify --proof".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := append([]string{}, args...)
			if addrFile != "" {
				fromFile, err := readAddresses(addrFile)
				if err != nil {
					return err
				}
				addrs = append(addrs, fromFile...)
			}
			if len(addrs) == 0 {
				return errors.New("no addresses given")
			}

			tree, err := merkle.NewTree(addrs)
			if err != nil {
				return err
			}
			out := treeFile{MerkleRoot: tree.Root(), Proofs: make(map[string]shared.Proof, len(addrs))}
			for _, addr := range addrs {
				proof, err := tree.Proof(addr)
				if err != nil {
					return fmt.Errorf("proof for %s: %w", addr, err)
				}
				out.Proofs[addr] = proof
			}

			w := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	treeCmd.Flags().StringVarP(&addrFile, "file", "f", "", "file with one address per line")
	treeCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	return treeCmd
}

func readAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanAddresses(f)
}

func scanAddresses(r io.Reader) ([]string, error) {
	var addrs []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addrs = append(addrs, line)
	}
	return addrs, s.Err()
}
