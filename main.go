package main

import "github.com/teemow/calrelay/cmd"

// version is overridden with -ldflags "-X main.version=..." in release builds.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
