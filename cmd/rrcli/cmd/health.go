package cmd

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (c *cli) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the status of the compliance service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rr, err := c.client()
			if err != nil {
				return err
			}
			health, err := rr.HealthCheck(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Status", "Version", "Addresses", "Merkle Root", "Active Lists"})
			table.Append([]string{
				health.Status,
				health.Version,
				strconv.FormatUint(health.SanctionsAddressesCount, 10),
				health.MerkleRoot,
				strings.Join(health.ActiveLists, ","),
			})
			table.Render()
			return nil
		},
	}
}
