package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/mappers"
	"nescore/ines"
)

// runMain runs the emulator headless with the given rom.
func runMain(args Run) {
	rom, err := ines.Open(args.RomPath)
	exitOnError(err, "failed to open rom")

	cfg := emu.LoadConfigOrDefault()
	log.EnableDebugModules(cfg.LogMask())

	switch args.Region {
	case "ntsc":
		cfg.Emulation.Region = hwdefs.NTSC
	case "pal":
		cfg.Emulation.Region = hwdefs.PAL
	case "rom":
		cfg.Emulation.Region = rom.Region()
	}
	if args.Strict {
		cfg.Emulation.StrictOpcodes = true
	}
	var trace io.WriteCloser
	if args.Trace != "" {
		trace, err = createOutput(args.Trace)
		exitOnError(err, "failed to create trace output")
		cfg.TraceOut = trace
	}

	e, err := emu.Launch(rom, cfg)
	exitOnError(err, "failed to start emulator")

	// Without audio device, samples are only counted.
	nsamples := make(chan int, 1)
	if audio := e.Audio(); audio != nil {
		go func() {
			n := 0
			for b := range audio {
				n += len(b.Samples) / 2
			}
			nsamples <- n
		}()
	} else {
		nsamples <- 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		e.Stop()
	}()

	runErr := e.Run(args.Frames)
	samples := <-nsamples

	if trace != nil {
		exitOnError(trace.Close(), "failed to close trace output")
	}
	if args.Screenshot != "" {
		exitOnError(e.SaveScreenshot(args.Screenshot), "failed to save screenshot")
	}
	if args.Snapshot != "" {
		exitOnError(e.SaveSnapshot(args.Snapshot), "failed to save snapshot")
	}

	c := e.Console
	fmt.Printf("%d frames, %d CPU cycles, %d audio samples (%d batches dropped)\n",
		c.PPU.Frames, c.CPU.Cycles, samples, c.DroppedAudio())
	exitOnError(runErr, "emulation failed")
}

func romInfosMain(args RomInfos) {
	rom, err := ines.Open(args.RomPath)
	exitOnError(err, "failed to open rom")

	format := "iNES"
	if rom.IsNES2() {
		format = "NES 2.0"
	}
	board := "unsupported"
	if desc, ok := mappers.All[rom.Mapper()]; ok {
		board = desc.Name
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Format\t%s\n", format)
	fmt.Fprintf(w, "Mapper\t%d (%s)\n", rom.Mapper(), board)
	fmt.Fprintf(w, "Submapper\t%d\n", rom.SubMapper())
	fmt.Fprintf(w, "PRG ROM\t%d KB\n", len(rom.PRGROM)/1024)
	if len(rom.CHRROM) > 0 {
		fmt.Fprintf(w, "CHR ROM\t%d KB\n", len(rom.CHRROM)/1024)
	} else {
		fmt.Fprintf(w, "CHR RAM\t%d KB\n", rom.CHRRAMSize()/1024)
	}
	fmt.Fprintf(w, "PRG RAM\t%d KB\n", rom.PRGRAMSize()/1024)
	fmt.Fprintf(w, "Mirroring\t%s\n", rom.Mirroring())
	fmt.Fprintf(w, "Battery\t%t\n", rom.HasBattery())
	fmt.Fprintf(w, "Trainer\t%t\n", rom.HasTrainer())
	fmt.Fprintf(w, "Region\t%s\n", rom.Region())
	exitOnError(w.Flush(), "failed to write rom infos")
}
