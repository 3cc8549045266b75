package cmd

import (
	"errors"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rulerunner/rulerunner-go/shared"
	"github.com/rulerunner/rulerunner-go/verifying"
)

var errProofMismatch = errors.New("proof doesn't match the merkle root")

func (c *cli) newCheckCmd() *cobra.Command {
	var (
		req    shared.ComplianceRequest
		verify bool
	)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a transfer between two addresses is compliant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rr, err := c.client()
			if err != nil {
				return err
			}

			if !verify {
				resp, err := rr.IsCompliant(cmd.Context(), req)
				if err != nil {
					return err
				}
				printCompliance(cmd, req, resp, nil)
				return nil
			}

			res, err := rr.CheckAndVerify(cmd.Context(), req)
			if err != nil {
				return err
			}
			printCompliance(cmd, req, res.Response, &res.Verification)
			if !res.Verification.Valid() {
				return errProofMismatch
			}
			return nil
		},
	}

	flags := checkCmd.Flags()
	flags.StringVar(&req.FromAddress, "from", "", "sender address (required)")
	flags.StringVar(&req.ToAddress, "to", "", "recipient address (required)")
	flags.StringVar(&req.Amount, "amount", "0", "transfer amount")
	flags.BoolVar(&verify, "verify", false, "verify returned proofs locally")
	_ = checkCmd.MarkFlagRequired("from")
	_ = checkCmd.MarkFlagRequired("to")

	return checkCmd
}

func printCompliance(cmd *cobra.Command, req shared.ComplianceRequest, resp *shared.ComplianceResponse, v *verifying.ComplianceVerification) {
	out := cmd.OutOrStdout()

	header := []string{"Address", "Sanctioned", "Proof Steps"}
	if v != nil {
		header = append(header, "Proof Valid")
	}
	row := func(addr string, sanctioned bool, proof shared.Proof, res verifying.ProofResult) []string {
		steps := "-"
		if proof != nil {
			steps = strconv.Itoa(len(proof))
		}
		r := []string{addr, strconv.FormatBool(sanctioned), steps}
		if v != nil {
			valid := "-"
			if res.Present {
				valid = strconv.FormatBool(res.Valid)
			}
			r = append(r, valid)
		}
		return r
	}

	var from, to verifying.ProofResult
	if v != nil {
		from, to = v.From, v.To
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.Append(row(req.FromAddress, resp.FromAddressSanctioned, resp.FromAddressProof, from))
	table.Append(row(req.ToAddress, resp.ToAddressSanctioned, resp.ToAddressProof, to))
	table.SetCaption(true, "compliant: "+strconv.FormatBool(resp.IsCompliant)+
		" | lists: "+strings.Join(resp.CheckedLists, ",")+
		" | root: "+resp.MerkleRoot+
		" | "+resp.Message)
	table.Render()
}
