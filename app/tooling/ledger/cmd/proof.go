package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// proofCmd represents the proof command
var proofCmd = &cobra.Command{
	Use:   "proof INDEX TX",
	Short: "Prove a transaction is recorded in a block.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			MerkleRoot string   `json:"merkle_root"`
			LeafHash   string   `json:"leaf_hash"`
			Proof      []string `json:"proof"`
			Order      []int64  `json:"order"`
			Verified   bool     `json:"verified"`
		}

		u := fmt.Sprintf("%s/v1/block/%s/proof?tx=%s", publicURL, url.PathEscape(args[0]), url.QueryEscape(args[1]))
		if err := send(http.MethodGet, u, nil, &resp); err != nil {
			return err
		}

		pterm.Info.Printfln("leaf %s", resp.LeafHash)
		pterm.Info.Printfln("root %s", resp.MerkleRoot)

		if err := pterm.DefaultTable.WithHasHeader().WithData(proofTable(resp.Proof, resp.Order)).Render(); err != nil {
			return err
		}

		if !resp.Verified {
			pterm.Error.Println("proof does not verify")
			return nil
		}

		pterm.Success.Println("proof verified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(proofCmd)
}
