package verifying

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spacemeshos/sha256-simd"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rulerunner/rulerunner-go/merkle"
	"github.com/rulerunner/rulerunner-go/shared"
)

// Published by the service for a sanctioned address.
const (
	fixtureAddress = "0x7FF9cFad3877F21d41Da833E2F775dB0569eE3D9"
	fixtureRoot    = "2c548666c385cf032a095394e977e9124c566854e68fe163f6484ca0c58c6bf3"
)

func fixtureProof() shared.Proof {
	return shared.Proof{
		{Position: shared.Left, Data: "66af3be0a459f23a7caf14b237e4f2bd7023966ef2531e5eba42e2c73d78bc67"},
		{Position: shared.Right, Data: "1721614e843e56a5be99be226102d5818557ea2cfc6a364e8f1a099dd270fe5b"},
		{Position: shared.Right, Data: "32565350c1a72cb10df8d4f5457156a0f6d6a1aa0e856e4599de2554c0d2916d"},
		{Position: shared.Left, Data: "1918f52a811cd9d7a9527053b44af28f1e68bd67dd46e4ea393e799bb01f58bc"},
		{Position: shared.Right, Data: "760e63e90a7c680201d189edede31f59f677caaf7398ffca1b353a9268d64c9a"},
		{Position: shared.Left, Data: "f0b76cb1d219f3d392fff3b591e01a98bb5373b54a565aabd6623451cf13487b"},
		{Position: shared.Right, Data: "b4372dbe311d0c0ca1f3dfeef96e4d1a29bfa13a7cf528bb2f923b8c5c01327c"},
		{Position: shared.Right, Data: "1ced6ee3cfd76af11b9f364b635b2020688cd972e735ae393e5d2a51e74dab74"},
		{Position: shared.Right, Data: "a66760f05b1d880da49faa6e6aad2e830693e8a2ea16917f56efa66a1fc94771"},
		{Position: shared.Right, Data: "f201d889c1b8aa5f86e2df49fb60d7e8001f16a2dd919dc645c80af358047397"},
	}
}

func flip(p shared.Position) shared.Position {
	if p == shared.Left {
		return shared.Right
	}
	return shared.Left
}

func TestVerify_PublishedProof(t *testing.T) {
	r := require.New(t)

	valid, err := Verify(fixtureAddress, fixtureProof(), fixtureRoot)
	r.NoError(err)
	r.True(valid)
}

func TestVerify_PlaceholderProof(t *testing.T) {
	r := require.New(t)

	proof := shared.Proof{
		{Position: shared.Right, Data: "hash1"},
		{Position: shared.Left, Data: "hash2"},
	}
	valid, err := Verify(fixtureAddress, proof, "different_hash")
	r.NoError(err)
	r.False(valid)
}

func TestVerify_AddressCase(t *testing.T) {
	r := require.New(t)

	for _, addr := range []string{
		fixtureAddress,
		strings.ToLower(fixtureAddress),
		strings.ToUpper(fixtureAddress),
		strings.TrimPrefix(fixtureAddress, "0x"),
	} {
		valid, err := Verify(addr, fixtureProof(), fixtureRoot)
		r.NoError(err)
		r.True(valid, addr)
	}
}

func TestVerify_RootIsCaseSensitive(t *testing.T) {
	r := require.New(t)

	valid, err := Verify(fixtureAddress, fixtureProof(), strings.ToUpper(fixtureRoot))
	r.NoError(err)
	r.False(valid)
}

func TestVerify_StepOrder(t *testing.T) {
	r := require.New(t)

	proof := fixtureProof()
	for i := 0; i+1 < len(proof); i++ {
		if proof[i] == proof[i+1] {
			continue
		}
		swapped := append(shared.Proof{}, proof...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]

		valid, err := Verify(fixtureAddress, swapped, fixtureRoot)
		r.NoError(err)
		r.False(valid, "steps %d and %d swapped", i, i+1)
	}
}

func TestVerify_StepPosition(t *testing.T) {
	r := require.New(t)

	for i := range fixtureProof() {
		proof := fixtureProof()
		proof[i].Position = flip(proof[i].Position)

		valid, err := Verify(fixtureAddress, proof, fixtureRoot)
		r.NoError(err)
		r.False(valid, "step %d flipped", i)
	}
}

func TestVerify_TamperedStep(t *testing.T) {
	r := require.New(t)

	proof := fixtureProof()
	proof[4].Data = strings.Replace(proof[4].Data, "7", "8", 1)
	valid, err := Verify(fixtureAddress, proof, fixtureRoot)
	r.NoError(err)
	r.False(valid)

	valid, err = Verify(fixtureAddress, fixtureProof()[:9], fixtureRoot)
	r.NoError(err)
	r.False(valid)
}

func TestVerify_EmptyProof(t *testing.T) {
	r := require.New(t)

	leaf, err := merkle.Sha256Hex(strings.ToLower(strings.TrimPrefix(fixtureAddress, "0x")))
	r.NoError(err)

	valid, err := Verify(fixtureAddress, nil, leaf)
	r.NoError(err)
	r.True(valid)

	valid, err = Verify(fixtureAddress, shared.Proof{}, fixtureRoot)
	r.NoError(err)
	r.False(valid)
}

func TestVerify_Deterministic(t *testing.T) {
	r := require.New(t)

	v, err := NewProofVerifier(WithLogger(zaptest.NewLogger(t)))
	r.NoError(err)

	for i := 0; i < 3; i++ {
		valid, err := v.Verify(fixtureAddress, fixtureProof(), fixtureRoot)
		r.NoError(err)
		r.True(valid)
	}
}

func TestVerify_Concurrent(t *testing.T) {
	r := require.New(t)

	v, err := NewProofVerifier()
	r.NoError(err)

	var wg sync.WaitGroup
	results := make([]bool, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			proof := fixtureProof()
			if i%2 == 1 {
				proof[0].Position = flip(proof[0].Position)
			}
			results[i], _ = v.Verify(fixtureAddress, proof, fixtureRoot)
		}(i)
	}
	wg.Wait()

	for i, valid := range results {
		r.Equal(i%2 == 0, valid, i)
	}
}

// The service hashes the hex text of the children. Hashing the decoded bytes
// must not reproduce its roots.
func TestVerify_HexTextConcatenation(t *testing.T) {
	r := require.New(t)

	rawBytes := func(data string) (string, error) {
		sum := sha256.Sum256([]byte(data))
		return hex.EncodeToString(sum[:]), nil
	}
	current, err := rawBytes(merkle.NormalizeAddress(fixtureAddress))
	r.NoError(err)
	for _, step := range fixtureProof() {
		cur, err := hex.DecodeString(current)
		r.NoError(err)
		sib, err := hex.DecodeString(step.Data)
		r.NoError(err)
		var buf []byte
		if step.Position == shared.Left {
			buf = append(sib, cur...)
		} else {
			buf = append(cur, sib...)
		}
		sum := sha256.Sum256(buf)
		current = hex.EncodeToString(sum[:])
	}
	r.NotEqual(fixtureRoot, current)

	valid, err := Verify(fixtureAddress, fixtureProof(), fixtureRoot)
	r.NoError(err)
	r.True(valid)
}

func TestVerify_MalformedDigestsAreOpaque(t *testing.T) {
	r := require.New(t)

	tree, err := merkle.NewTree([]string{"0xaa", "0xbb"})
	r.NoError(err)
	proof, err := tree.Proof("0xaa")
	r.NoError(err)
	proof[0].Data = "not hex at all"

	valid, err := Verify("0xaa", proof, tree.Root())
	r.NoError(err)
	r.False(valid)

	// opaque text still round-trips when the root was built from it
	root, err := merkle.ComputeRoot(merkle.Sha256Hex, "0xaa", proof)
	r.NoError(err)
	valid, err = Verify("0xaa", proof, root)
	r.NoError(err)
	r.True(valid)
}

func TestVerify_StrictDigests(t *testing.T) {
	r := require.New(t)

	v, err := NewProofVerifier(WithStrictDigests())
	r.NoError(err)

	valid, err := v.Verify(fixtureAddress, fixtureProof(), fixtureRoot)
	r.NoError(err)
	r.True(valid)

	proof := fixtureProof()
	proof[2].Data = strings.ToUpper(proof[2].Data)
	_, err = v.Verify(fixtureAddress, proof, fixtureRoot)
	r.ErrorIs(err, ErrMalformedDigest)
	r.ErrorIs(err, shared.ErrProofVerification)

	_, err = v.Verify(fixtureAddress, fixtureProof(), "different_hash")
	r.ErrorIs(err, ErrMalformedDigest)
}

func TestVerify_DigestFailure(t *testing.T) {
	r := require.New(t)

	errDigest := errors.New("digest unavailable")
	v, err := NewProofVerifier(WithHashFunc(func(string) (string, error) {
		return "", errDigest
	}))
	r.NoError(err)

	valid, err := v.Verify(fixtureAddress, fixtureProof(), fixtureRoot)
	r.False(valid)
	r.ErrorIs(err, errDigest)
	r.ErrorIs(err, shared.ErrProofVerification)
	r.Equal(shared.KindProofVerification, shared.KindOf(err))
	r.ErrorContains(err, "failed to verify proof: ")
	r.ErrorContains(err, "digest unavailable")
}

func TestVerify_UnknownPosition(t *testing.T) {
	r := require.New(t)

	proof := fixtureProof()
	proof[1].Position = "middle"
	valid, err := Verify(fixtureAddress, proof, fixtureRoot)
	r.False(valid)
	r.ErrorIs(err, shared.ErrProofVerification)
}

func TestNewProofVerifier_InvalidOptions(t *testing.T) {
	r := require.New(t)

	_, err := NewProofVerifier(WithHashFunc(nil))
	r.Error(err)
	_, err = NewProofVerifier(WithLogger(nil))
	r.Error(err)
}

func complianceFixture(t *testing.T, sanctioned []string) (*merkle.Tree, func(addr string) shared.Proof) {
	t.Helper()
	tree, err := merkle.NewTree(sanctioned)
	require.NoError(t, err)
	return tree, func(addr string) shared.Proof {
		proof, err := tree.Proof(addr)
		require.NoError(t, err)
		return proof
	}
}

func TestVerifyCompliance(t *testing.T) {
	sanctioned := make([]string, 11)
	for i := range sanctioned {
		sanctioned[i] = fmt.Sprintf("0x%040x", 0xbad0+i)
	}
	tree, proofOf := complianceFixture(t, sanctioned)
	req := shared.ComplianceRequest{FromAddress: sanctioned[3], ToAddress: sanctioned[10], Amount: "1.0"}

	v, err := NewProofVerifier(WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	t.Run("both proofs", func(t *testing.T) {
		r := require.New(t)
		resp := &shared.ComplianceResponse{
			FromAddressSanctioned: true,
			ToAddressSanctioned:   true,
			FromAddressProof:      proofOf(req.FromAddress),
			ToAddressProof:        proofOf(req.ToAddress),
			MerkleRoot:            tree.Root(),
		}
		res, err := v.VerifyCompliance(context.Background(), req, resp)
		r.NoError(err)
		r.True(res.From.Present)
		r.True(res.From.Valid)
		r.True(res.To.Present)
		r.True(res.To.Valid)
		r.True(res.Valid())
	})

	t.Run("proof for the wrong address", func(t *testing.T) {
		r := require.New(t)
		resp := &shared.ComplianceResponse{
			FromAddressProof: proofOf(sanctioned[4]),
			MerkleRoot:       tree.Root(),
		}
		res, err := v.VerifyCompliance(context.Background(), req, resp)
		r.NoError(err)
		r.True(res.From.Present)
		r.False(res.From.Valid)
		r.False(res.To.Present)
		r.False(res.Valid())
	})

	t.Run("no proofs", func(t *testing.T) {
		r := require.New(t)
		res, err := v.VerifyCompliance(context.Background(), req, &shared.ComplianceResponse{IsCompliant: true})
		r.NoError(err)
		r.False(res.From.Present)
		r.False(res.To.Present)
		r.True(res.Valid())
	})

	t.Run("missing root", func(t *testing.T) {
		r := require.New(t)
		resp := &shared.ComplianceResponse{ToAddressProof: proofOf(req.ToAddress)}
		_, err := v.VerifyCompliance(context.Background(), req, resp)
		r.ErrorIs(err, ErrMissingRoot)
		r.ErrorIs(err, shared.ErrProofVerification)
	})

	t.Run("canceled", func(t *testing.T) {
		r := require.New(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		resp := &shared.ComplianceResponse{
			FromAddressProof: proofOf(req.FromAddress),
			MerkleRoot:       tree.Root(),
		}
		_, err := v.VerifyCompliance(ctx, req, resp)
		r.ErrorIs(err, context.Canceled)
	})
}
