package cmd

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/merkle"
	"github.com/pterm/pterm"
)

// blockTable lays the records out one block per row.
func blockTable(blocks []database.BlockData) pterm.TableData {
	data := pterm.TableData{
		{"Index", "Timestamp", "Nonce", "Hash", "Previous", "Transactions"},
	}

	for _, bd := range blocks {
		data = append(data, []string{
			fmt.Sprint(bd.Index),
			fmt.Sprint(bd.TimeStamp),
			fmt.Sprint(bd.Nonce),
			short(bd.Hash),
			short(bd.PrevHash),
			strings.Join(bd.Transactions, ", "),
		})
	}

	return data
}

// proofTable lays out a merkle inclusion proof one step per row.
func proofTable(proof []string, order []int64) pterm.TableData {
	data := pterm.TableData{
		{"Step", "Side", "Hash"},
	}

	for i, hash := range proof {
		side := "left"
		if i < len(order) && order[i] == merkle.ProofRight {
			side = "right"
		}
		data = append(data, []string{fmt.Sprint(i), side, hash})
	}

	return data
}

// short trims a digest for display.
func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

func renderBlocks(blocks []database.BlockData) error {
	return pterm.DefaultTable.WithHasHeader().WithData(blockTable(blocks)).Render()
}
