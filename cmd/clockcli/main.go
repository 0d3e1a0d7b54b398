package main

import (
	"github.com/satclock/satclock.go/pkg/cli/sh"

	_ "github.com/satclock/satclock.go/pkg/cli/cmds/clock"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
