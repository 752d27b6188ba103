package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// containersCmd returns the command listing the account's containers.
func containersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List containers in the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			names, err := client.ListContainers(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// lsCmd returns the command listing blobs in a container.
func lsCmd(opts *globalOptions) *cobra.Command {
	var (
		prefix   string
		pageSize int32
		metadata bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ls <container>",
		Short: "List blobs in a container",
		Long: `List blobs in a container in listing order.

Examples:
  blobctl ls docs --prefix reports/
  blobctl ls docs --metadata --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			entries, err := client.ListBlobs(cmd.Context(), args[0],
				blobstore.WithPrefix(prefix),
				blobstore.WithListPageSize(pageSize),
				blobstore.WithIncludeMetadata(metadata),
			)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return printEntries(cmd, entries, metadata)
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Only list blobs whose names begin with this prefix")
	cmd.Flags().Int32Var(&pageSize, "page-size", 0, "Entries requested per page (default client page size)")
	cmd.Flags().BoolVarP(&metadata, "metadata", "m", false, "Fetch metadata for every blob")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}

func printEntries(cmd *cobra.Command, entries []blobtypes.BlobEntry, metadata bool) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, e := range entries {
		modified := "-"
		if e.LastModified != nil {
			modified = e.LastModified.Format(time.RFC3339)
		}
		if metadata {
			fmt.Fprintf(w, "%s\t%s\t%v\n", e.Name, modified, e.Metadata)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", e.Name, modified)
		}
	}
	return w.Flush()
}
