package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM
	romInfosMode             // Show ROM infos
	versionMode              // Show nescore version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator, without video output."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Version  Version  `cmd:"" help:"Show nescore version."`

		Log logFlag `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Frames     int    `name:"frames" help:"Number of frames to emulate (0: until the CPU halts)." default:"60"`
		Screenshot string `name:"screenshot" help:"Save the last frame as PNG." type:"path" placeholder:"out.png"`
		Snapshot   string `name:"snapshot" help:"Save the console state as JSON." type:"path" placeholder:"out.json"`
		Trace      string `name:"trace" help:"Write a CPU trace log to FILE (or stdout, stderr)." placeholder:"FILE"`
		Region     string `name:"region" help:"Console region: from the config file, ntsc, pal, or from the ROM header." enum:"config,ntsc,pal,rom" default:"config"`
		Strict     bool   `name:"strict" help:"Halt on unofficial opcodes."`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"rompath_help": "Path of the ROM to run (iNES or NES 2.0).",
	"log_help":     "Enable debug logs for a comma-separated list of modules ('all' for all of them, 'no' to disable logging).",
}

func parseArgs(args []string) CLI {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("nescore"),
		kong.Description("Cycle-level NES emulation core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	exitOnError(err, "invalid command line")

	switch ctx.Command() {
	case "rom-infos </path/to/rom>":
		cli.mode = romInfosMode
	case "version":
		cli.mode = versionMode
	default:
		cli.mode = runMode
	}
	return cli
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "\nLog modules:\n  %s\n", strings.Join(log.ModuleNames(), ", "))
	return nil
}

// logFlag holds the log modules selected on the command line.
type logFlag struct {
	mask    log.ModuleMask
	disable bool
}

// Decode implements kong.MapperValue.
func (lf *logFlag) Decode(ctx *kong.DecodeContext) error {
	var list string
	if err := ctx.Scan.PopValueInto("log modules", &list); err != nil {
		return err
	}

	mask, disable, err := log.ParseModules(strings.Split(list, ","))
	if err != nil {
		return err
	}
	lf.mask |= mask
	lf.disable = lf.disable || disable
	return nil
}

func (lf logFlag) apply() {
	if lf.disable {
		log.Disable()
		return
	}
	log.EnableDebugModules(lf.mask)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens the named file for writing. The names "stdout" and
// "stderr" designate the standard streams, which are never closed.
func createOutput(name string) (io.WriteCloser, error) {
	switch name {
	case "stdout":
		return nopCloser{os.Stdout}, nil
	case "stderr":
		return nopCloser{os.Stderr}, nil
	}
	return os.Create(name)
}

func exitOnError(err error, msg string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "nescore: %s: %v\n", msg, err)
	os.Exit(1)
}
