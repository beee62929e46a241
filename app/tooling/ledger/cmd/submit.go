package cmd

import (
	"fmt"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit TX [TX...]",
	Short: "Mine a new block holding the transactions.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, _ := pterm.DefaultSpinner.Start("mining block")

		req := struct {
			Transactions []string `json:"transactions"`
		}{
			Transactions: args,
		}

		var resp struct {
			Block database.BlockData `json:"block"`
		}

		if err := send(http.MethodPost, publicURL+"/v1/tx/submit", req, &resp); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		spinner.Success(fmt.Sprintf("mined block %d", resp.Block.Index))

		return renderBlocks([]database.BlockData{resp.Block})
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
