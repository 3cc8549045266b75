package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulerunner/rulerunner-go/merkle"
	"github.com/rulerunner/rulerunner-go/shared"
	"github.com/rulerunner/rulerunner-go/verifying"
)

func (c *cli) newVerifyCmd() *cobra.Command {
	var (
		address   string
		root      string
		proofPath string
		strict    bool
	)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a Merkle proof offline",
		Long: `verify recomputes the Merkle root for an address from a proof and compares it
with the expected root. No request is sent to the compliance service.

The proof file holds either a JSON array of {"position","data"} steps or the
output of "rrcli tree", in which case --root defaults to its merkle_root.
Use "-" to read the proof from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readProofInput(cmd, proofPath)
			if err != nil {
				return err
			}
			proof, fileRoot, err := decodeProof(data, address)
			if err != nil {
				return err
			}
			if root == "" {
				root = fileRoot
			}
			if root == "" {
				return errors.New("--root is required")
			}

			logger, err := c.logger()
			if err != nil {
				return fmt.Errorf("failed to initialize zap logger: %w", err)
			}
			opts := []verifying.OptionFunc{verifying.WithLogger(logger.Named("verifier"))}
			if strict {
				opts = append(opts, verifying.WithStrictDigests())
			}
			v, err := verifying.NewProofVerifier(opts...)
			if err != nil {
				return err
			}

			valid, err := v.Verify(address, proof, root)
			if err != nil {
				return err
			}
			if !valid {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %s is not proven under %s\n", address, root)
				return errProofMismatch
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VALID: %s is included under %s\n", address, root)
			return nil
		},
	}

	flags := verifyCmd.Flags()
	flags.StringVar(&address, "address", "", "address to verify (required)")
	flags.StringVar(&root, "root", "", "expected merkle root")
	flags.StringVar(&proofPath, "proof", "", "proof file, or - for stdin (required)")
	flags.BoolVar(&strict, "strict", false, "reject digests that aren't lowercase hex SHA-256")
	_ = verifyCmd.MarkFlagRequired("address")
	_ = verifyCmd.MarkFlagRequired("proof")

	return verifyCmd
}

func readProofInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func decodeProof(data []byte, address string) (shared.Proof, string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var proof shared.Proof
		if err := json.Unmarshal(data, &proof); err != nil {
			return nil, "", fmt.Errorf("failed to decode proof: %w", err)
		}
		return proof, "", nil
	}

	var tf treeFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, "", fmt.Errorf("failed to decode proof: %w", err)
	}
	if proof, ok := tf.Proofs[address]; ok {
		return proof, tf.MerkleRoot, nil
	}
	for addr, proof := range tf.Proofs {
		if merkle.NormalizeAddress(addr) == merkle.NormalizeAddress(address) {
			return proof, tf.MerkleRoot, nil
		}
	}
	return nil, "", fmt.Errorf("no proof for %s in file", address)
}
