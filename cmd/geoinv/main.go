package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	_ "time/tzdata" // run dates are taken in GEOINV_TIMEZONE even on minimal images

	"github.com/MrSnakeDoc/geoinv/internal/app"
	"github.com/MrSnakeDoc/geoinv/internal/version"
)

func main() {
	var once, showVersion bool

	flagSet := pflag.NewFlagSet("geoinv", pflag.ContinueOnError)
	flagSet.BoolVar(&once, "once", false, "perform a single run and exit (no HTTP server)")
	flagSet.BoolVarP(&showVersion, "version", "v", false, "print version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, `geoinv keeps an inventory of the layers published by a directory of OGC
geoservers and disables services that keep failing.

Configuration is read from GEOINV_* environment variables.

Usage:
  geoinv [flags]

Flags:
%s`, flagSet.FlagUsages())
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("❌ %v", err)
	}
	if args := flagSet.Args(); len(args) > 0 {
		log.Fatalf("❌ unexpected argument: %s", args[0])
	}

	if showVersion {
		fmt.Println(version.String())
		return
	}

	a := app.New()
	if once {
		if err := a.RunOnce(); err != nil {
			log.Fatalf("❌ geoinv run failed: %v", err)
		}
		return
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ geoinv failed to start: %v", err)
	}
}
