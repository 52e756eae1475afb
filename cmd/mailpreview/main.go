package main

import (
	"os"

	"github.com/wrouesnel/mailpreview/pkg/entrypoint"
	"github.com/wrouesnel/mailpreview/pkg/envutil"

	"github.com/samber/lo"
)

func main() {
	os.Exit(run())
}

func run() int {
	env := lo.Must(envutil.FromEnvironment(os.Environ()))

	args := entrypoint.LaunchArgs{
		StdIn:  os.Stdin,
		StdOut: os.Stdout,
		StdErr: os.Stderr,
		Env:    env,
		Args:   os.Args[1:],
	}
	return entrypoint.Entrypoint(args)
}
