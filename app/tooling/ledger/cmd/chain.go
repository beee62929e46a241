package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// chainCmd represents the chain command
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held by the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var blocks []database.BlockData
		if err := send(http.MethodGet, publicURL+"/v1/chain", nil, &blocks); err != nil {
			return err
		}

		return renderBlocks(blocks)
	},
}

// blockCmd represents the block command
var blockCmd = &cobra.Command{
	Use:   "block INDEX",
	Short: "Print a single block.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.ParseUint(args[0], 10, 64); err != nil {
			return fmt.Errorf("invalid block index %q", args[0])
		}

		var block database.BlockData
		if err := send(http.MethodGet, publicURL+"/v1/block/"+args[0], nil, &block); err != nil {
			return err
		}

		return renderBlocks([]database.BlockData{block})
	},
}

// validCmd represents the valid command
var validCmd = &cobra.Command{
	Use:   "valid",
	Short: "Run the full audit of the chain held by the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Valid  bool `json:"valid"`
			Length int  `json:"length"`
		}
		if err := send(http.MethodGet, publicURL+"/v1/chain/valid", nil, &resp); err != nil {
			return err
		}

		if !resp.Valid {
			pterm.Error.Printfln("chain of %d blocks is invalid", resp.Length)
			return nil
		}

		pterm.Success.Printfln("chain of %d blocks is valid", resp.Length)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(validCmd)
}
