package verifying

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rulerunner/rulerunner-go/merkle"
	"github.com/rulerunner/rulerunner-go/shared"
)

var (
	ErrMalformedDigest = errors.New("malformed digest")
	ErrMissingRoot     = errors.New("response carries a proof but no merkle root")
)

// ProofVerifier recomputes Merkle roots from sanctions list proofs.
// It holds no mutable state and is safe for concurrent use.
type ProofVerifier struct {
	hash          merkle.HashFunc
	logger        *zap.Logger
	strictDigests bool
}

func NewProofVerifier(opts ...OptionFunc) (*ProofVerifier, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &ProofVerifier{
		hash:          options.hash,
		logger:        options.logger,
		strictDigests: options.strictDigests,
	}, nil
}

var defaultVerifier = &ProofVerifier{hash: merkle.Sha256Hex, logger: zap.NewNop()}

// Verify checks proof for address against root with the default verifier.
func Verify(address string, proof shared.Proof, root string) (bool, error) {
	return defaultVerifier.Verify(address, proof, root)
}

// Verify reports whether proof leads from address to root.
// A proof that doesn't reconstruct root is not an error; Verify returns false.
// An error is returned only when the root can't be computed, and has kind
// shared.KindProofVerification.
func (v *ProofVerifier) Verify(address string, proof shared.Proof, root string) (bool, error) {
	if v.strictDigests {
		if err := checkDigests(proof, root); err != nil {
			return false, verificationError(err)
		}
	}

	computed, err := merkle.ComputeRoot(v.hash, address, proof)
	if err != nil {
		v.logger.Debug("proof verification failed", zap.String("address", address), zap.Error(err))
		return false, verificationError(err)
	}

	valid := computed == root
	v.logger.Debug("proof verified",
		zap.String("address", address),
		zap.Int("steps", len(proof)),
		zap.String("root", root),
		zap.Bool("valid", valid),
	)
	return valid, nil
}

func verificationError(err error) error {
	return shared.NewError(shared.KindProofVerification, "failed to verify proof", err)
}

func checkDigests(proof shared.Proof, root string) error {
	if !isDigest(root) {
		return fmt.Errorf("%w: root %q", ErrMalformedDigest, root)
	}
	for i, step := range proof {
		if !isDigest(step.Data) {
			return fmt.Errorf("%w: step %d data %q", ErrMalformedDigest, i, step.Data)
		}
	}
	return nil
}

func isDigest(s string) bool {
	if len(s) != merkle.DigestHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ProofResult is the local verdict on one proof of a compliance response.
type ProofResult struct {
	// Present is false when the service didn't return a proof for the address.
	Present bool
	Valid   bool
}

type ComplianceVerification struct {
	Root string
	From ProofResult
	To   ProofResult
}

// Valid reports whether every proof the service returned checks out locally.
func (c ComplianceVerification) Valid() bool {
	return (!c.From.Present || c.From.Valid) && (!c.To.Present || c.To.Valid)
}

// VerifyCompliance checks the from and to proofs carried by resp against resp.MerkleRoot.
// The two proofs are independent and are verified concurrently.
func (v *ProofVerifier) VerifyCompliance(ctx context.Context, req shared.ComplianceRequest, resp *shared.ComplianceResponse) (ComplianceVerification, error) {
	res := ComplianceVerification{
		Root: resp.MerkleRoot,
		From: ProofResult{Present: resp.FromAddressProof != nil},
		To:   ProofResult{Present: resp.ToAddressProof != nil},
	}
	if (res.From.Present || res.To.Present) && resp.MerkleRoot == "" {
		return res, verificationError(ErrMissingRoot)
	}

	eg, ctx := errgroup.WithContext(ctx)
	verify := func(address string, proof shared.Proof, out *ProofResult) {
		if !out.Present {
			return
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			valid, err := v.Verify(address, proof, resp.MerkleRoot)
			if err != nil {
				return err
			}
			out.Valid = valid
			return nil
		})
	}
	verify(req.FromAddress, resp.FromAddressProof, &res.From)
	verify(req.ToAddress, resp.ToAddressProof, &res.To)

	if err := eg.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
