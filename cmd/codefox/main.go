package main

import (
	"github.com/codefox-dev/codefox/internal/cli"
)

func main() {
	cli.Execute()
}
