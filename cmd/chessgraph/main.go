package main

import (
	"github.com/chessgraph/chessgraph/internal/cli"
)

func main() {
	cli.Execute()
}
