package main

import (
	"fmt"
	"os"

	"fjacquet/ledger-import/cmd/importcmd"
	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/cmd/templates"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(templates.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
