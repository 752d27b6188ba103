// Package main implements blobctl, a command-line tool for working with
// Azure Blob Storage accounts configured through the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "blobctl",
		Short: "Azure Blob Storage CLI",
		Long: `blobctl lists, transfers and moves blobs in Azure Blob Storage.

Connection strings are read from AZURE_BLOB_STORAGE_CONNECTION_STRING and the
named account variables, optionally seeded from .env files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Read connection strings from these .env files (default .env if present)")
	cmd.PersistentFlags().StringVarP(&opts.account, "account", "a", "", "Use a named account instead of the default connection")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(containersCmd(opts))
	cmd.AddCommand(lsCmd(opts))
	cmd.AddCommand(putCmd(opts))
	cmd.AddCommand(getCmd(opts))
	cmd.AddCommand(catCmd(opts))
	cmd.AddCommand(rmCmd(opts))
	cmd.AddCommand(metaCmd(opts))
	cmd.AddCommand(urlCmd(opts))
	cmd.AddCommand(mvCmd(opts))

	return cmd
}
