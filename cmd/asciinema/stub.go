package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newAuthCmd and newUploadCmd are placeholders: authentication and
// recording upload talk to the asciinema.org API and are out of scope
// here (see the core engine's scope notes). They exist so the command
// tree matches the full CLI's surface and fail loudly instead of
// silently doing nothing.

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "auth",
		Short:  "Link this CLI with an asciinema.org account",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return notImplemented()
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "upload <file>",
		Short:  "Upload a recording to asciinema.org",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return notImplemented()
		},
	}
}

func notImplemented() error {
	return fmt.Errorf("not implemented — delegate to the full asciinema CLI")
}
