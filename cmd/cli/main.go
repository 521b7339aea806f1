package main

import (
	"os"

	"expensehub/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
