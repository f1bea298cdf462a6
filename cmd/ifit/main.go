package main

import (
	"github.com/ifitclub/ifit-agent/internal/cli"
)

func main() {
	cli.Execute()
}
