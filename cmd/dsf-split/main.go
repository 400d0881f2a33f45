// Command dsf-split splits continuous DSF (DSD) recordings into
// per-track files using a CUE sheet, with bit-perfect accuracy.
//
// Usage:
//
//	dsf-split album.cue
//	dsf-split -o out/ album.cue          # write outputs to out/
//	dsf-split -f -v album.cue            # overwrite existing files, verbose
//	dsf-split -keep-going album.cue      # report all failures, not just the first
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	dsfsplit "github.com/tphakala/go-dsf-split"
	"github.com/tphakala/go-dsf-split/internal/cue"
	"github.com/tphakala/go-dsf-split/internal/dsf"
)

const minRequiredArgs = 1

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outputDir := flag.String("o", "", "Output directory (default: next to the cue sheet)")
	force := flag.Bool("f", false, "Overwrite existing output files")
	keepGoing := flag.Bool("keep-going", false, "Continue past per-track failures and report them all")
	parallel := flag.Bool("parallel", true, "Process tracks concurrently")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] album.cue\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s album.cue            # split next to the cue sheet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o out/ album.cue    # split into out/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -f album.cue         # overwrite existing tracks\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}
	cuePath := args[0]

	if *verbose {
		log.Printf("Cue sheet: %s", cuePath)
		if *outputDir != "" {
			log.Printf("Output directory: %s", *outputDir)
		}
		if err := logSourceInfo(cuePath); err != nil {
			return err
		}
	}

	opts := &dsfsplit.Options{
		Overwrite: *force,
		FailFast:  !*keepGoing,
		Parallel:  *parallel,
	}
	results, err := dsfsplit.SplitCue(cuePath, *outputDir, opts)

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("  failed: %s: %v\n", filepath.Base(r.OutputPath), r.Err)
		default:
			fmt.Printf("  %s\n", filepath.Base(r.OutputPath))
		}
	}
	return err
}

// logSourceInfo prints duration, channel count and sampling frequency for
// every source file the cue sheet references. Headers only; the data
// regions are not read.
func logSourceInfo(cuePath string) error {
	raw, err := os.ReadFile(cuePath)
	if err != nil {
		return fmt.Errorf("reading cue sheet: %w", err)
	}
	sheet, err := cue.ParseBytes(raw)
	if err != nil {
		return err
	}

	dir := filepath.Dir(cuePath)
	for _, file := range sheet.Files {
		src, err := os.Open(filepath.Join(dir, file.Name))
		if err != nil {
			return fmt.Errorf("opening source: %w", err)
		}
		desc, err := dsf.Parse(src)
		_ = src.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
		log.Printf("%s: %.2fs, %d channels, %d Hz, %d tracks",
			file.Name, desc.Duration().Seconds(), desc.Channels, desc.SampleRate, len(file.Tracks))
	}
	return nil
}
