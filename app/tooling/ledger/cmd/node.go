package cmd

import (
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status peer.PeerStatus
		if err := send(http.MethodGet, privateURL+"/v1/node/status", nil, &status); err != nil {
			return err
		}

		data := pterm.TableData{
			{"Latest Block", "Hash", "Length", "Difficulty", "Peers"},
			{
				pterm.Sprint(status.LatestBlockNumber),
				status.LatestBlockHash,
				pterm.Sprint(status.Length),
				pterm.Sprint(status.Difficulty),
				pterm.Sprint(status.KnownPeers),
			},
		}

		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

// peerCmd represents the peer command
var peerCmd = &cobra.Command{
	Use:   "peer HOST",
	Short: "Register a peer with the node.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(http.MethodPost, privateURL+"/v1/node/peers", peer.New(args[0]), nil); err != nil {
			return err
		}

		pterm.Success.Printfln("peer %s registered", args[0])
		return nil
	},
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Ask the node to adopt the longest valid chain of its peers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Replaced bool `json:"replaced"`
			Length   int  `json:"length"`
		}
		if err := send(http.MethodPost, privateURL+"/v1/node/resolve", nil, &resp); err != nil {
			return err
		}

		if resp.Replaced {
			pterm.Success.Printfln("chain replaced, length %d", resp.Length)
			return nil
		}

		pterm.Info.Printfln("chain kept, length %d", resp.Length)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(peerCmd)
	rootCmd.AddCommand(resolveCmd)
}
