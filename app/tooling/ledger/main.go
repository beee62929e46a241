// This program talks to a running node to submit transactions, inspect the
// chain and trigger consensus.
package main

import "github.com/ardanlabs/powledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
