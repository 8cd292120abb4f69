package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

// set at link time with -ldflags "-X main.version=..."
var version = ""

func main() {
	cli := parseArgs(os.Args[1:])
	cli.Log.apply()

	switch cli.mode {
	case runMode:
		runMain(cli.Run)
	case romInfosMode:
		romInfosMain(cli.RomInfos)
	case versionMode:
		fmt.Println("nescore", buildVersion())
	}
}

func buildVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}
