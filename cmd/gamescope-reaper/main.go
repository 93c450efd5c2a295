package main

import (
	"github.com/DocMAX/gamescope/internal/cli"
	"github.com/DocMAX/gamescope/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
