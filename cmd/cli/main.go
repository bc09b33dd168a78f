// Package main is the entry point for the planner CLI binary.
package main

import (
	"os"

	cli "github.com/MonkeyElite/Production-Planner/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
