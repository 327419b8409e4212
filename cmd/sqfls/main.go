// Command sqfls is the entry point for the sqfls language server and its
// supporting CLI commands.
package main

import (
	"fmt"
	"os"

	"github.com/wharflab/sqfls/cmd/sqfls/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
