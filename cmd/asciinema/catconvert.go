package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/encoder"
)

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <file>...",
		Short: "Concatenate recordings to a single v3 stream on stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(args)
		},
	}
	return cmd
}

// runCat concatenates the given recordings into one v3 stream on
// stdout: the first file's header is kept, and each subsequent file's
// event times are shifted by the running total of prior files' last
// event time, per S2.
func runCat(paths []string) error {
	var (
		header  asciicast.Header
		haveHdr bool
		offset  time.Duration
		enc     = asciicast.NewV3Encoder()
	)

	for _, path := range paths {
		cast, err := loadCast(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if !haveHdr {
			header = cast.Header
			haveHdr = true
			if _, err := os.Stdout.Write(asciicast.EncodeV3Header(header)); err != nil {
				return err
			}
		}

		var last time.Duration
		for _, ev := range cast.Events {
			shifted := ev
			shifted.Time = ev.Time + offset
			if _, err := os.Stdout.Write(enc.Event(shifted)); err != nil {
				return err
			}
			if ev.Time > last {
				last = ev.Time
			}
		}
		offset += last
	}

	return nil
}

func newConvertCmd() *cobra.Command {
	var (
		format    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a recording between formats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1], format, overwrite)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: v3, v2, raw, or txt")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing output file")

	return cmd
}

func runConvert(in, out, formatFlag string, overwrite bool) error {
	target, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}

	cast, err := loadCast(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	f, err := openOutputFile(out, false, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := encoder.New(target, false, false)

	if _, err := f.Write(enc.Header(cast.Header)); err != nil {
		return err
	}
	for _, ev := range cast.Events {
		if _, err := f.Write(enc.Event(ev)); err != nil {
			return err
		}
	}
	if tail := enc.Flush(); len(tail) > 0 {
		if _, err := f.Write(tail); err != nil {
			return err
		}
	}

	return nil
}
