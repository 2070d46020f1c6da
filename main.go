// Package main is the entry point of the anistream binary.
package main

import (
	"github.com/anisan-cli/anistream/cmd"
	"github.com/anisan-cli/anistream/config"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	cmd.Execute()
}
