package main

import (
	"github.com/robotalks/wirebus/pkg/cli/sh"
	"github.com/robotalks/wirebus/pkg/env"

	_ "github.com/robotalks/wirebus/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
