package main

import (
	"github.com/kolkov/launcher/internal/cli"
	"github.com/kolkov/launcher/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
