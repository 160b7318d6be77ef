// DuctLoad: load planner for rigid ventilation duct sections.
//
// Packs a cargo list (CSV or XLSX) into one or more vehicle bodies under
// geometric, payload, stacking and flange-clearance constraints, and writes
// the plan as PDF, QR labels, DXF and a JSON project file.
//
// Build:
//
//	go build -o ductload ./cmd/ductload
//
// Usage:
//
//	ductload pack      --items cargo.csv --vehicle "Truck 5t 6m" --pdf plan.pdf --out site.json
//	ductload scenarios --items cargo.xlsx --vehicle 2400x2500x12000 --max-vehicles 2
//	ductload validate  --project site.json
//	ductload fleet
package main

import (
	"fmt"
	"io"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitFailure     = 1 // run finished but the plan is not acceptable
	ExitUsage       = 2
	ExitConfigError = 3
	ExitInputError  = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return ExitUsage
	}

	switch args[0] {
	case "pack":
		return cmdPack(args[1:], stdout, stderr)
	case "scenarios":
		return cmdScenarios(args[1:], stdout, stderr)
	case "validate":
		return cmdValidate(args[1:], stdout, stderr)
	case "fleet":
		return cmdFleet(args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "ductload %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	case "help", "-h", "--help":
		usage(stdout)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return ExitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: ductload <command> [flags]

commands:
  pack       pack a cargo list into vehicles and export the plan
  scenarios  run every loading profile and rank the results
  validate   audit a saved project for clearance, stacking and stability
  fleet      list the vehicle presets
  version    print version

Run "ductload <command> -h" for the flags of a command.
`)
}
