package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// putCmd returns the command uploading a local file.
func putCmd(opts *globalOptions) *cobra.Command {
	var (
		contentType string
		meta        []string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "put <container> <file> [blob]",
		Short: "Upload a local file",
		Long: `Upload a local file as a block blob. The blob name defaults to the file's base name.

Examples:
  blobctl put docs ./report.pdf reports/q1.pdf --meta owner=finance`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, path := args[0], args[1]
			name := filepath.Base(path)
			if len(args) == 3 {
				name = args[2]
			}

			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			var tracker blobtypes.ProgressTracker
			if !quiet {
				var size int64 = -1
				if info, err := os.Stat(path); err == nil {
					size = info.Size()
				}
				tracker = newProgressTracker(cmd.ErrOrStderr(), "Uploading "+name, size)
			}

			result, err := client.UploadFile(cmd.Context(), container, name, path,
				uploadOptions(contentType, metadata, tracker)...)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Uploaded %s (%d bytes)\n", result.URL, result.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type (detected from content and extension if empty)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata as key=value, repeatable")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not render a progress bar")

	return cmd
}

// getCmd returns the command downloading a blob into a local directory.
func getCmd(opts *globalOptions) *cobra.Command {
	var (
		dir   string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "get <container> <blob>",
		Short: "Download a blob into a local directory",
		Long: `Download a blob to the local directory joined with the blob name, creating
directories as needed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			var dlOpts []blobtypes.DownloadOption
			if !quiet {
				dlOpts = append(dlOpts, blobstore.WithDownloadProgress(
					newProgressTracker(cmd.ErrOrStderr(), "Downloading "+args[1], -1)))
			}

			result, err := client.DownloadFile(cmd.Context(), args[0], args[1], dir, dlOpts...)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Downloaded %s (%d bytes)\n", result.Path, result.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Local directory to download into")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not render a progress bar")

	return cmd
}

// catCmd returns the command printing a blob's content.
func catCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <container> <blob>",
		Short: "Print a blob's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			content, err := client.DownloadString(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}
}

// rmCmd returns the command deleting a blob.
func rmCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <container> <blob>",
		Short: "Delete a blob",
		Long:  `Delete a blob. Deleting a blob that does not exist succeeds.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			return client.Delete(cmd.Context(), args[0], args[1])
		},
	}
}

// metaCmd returns the command showing or merging blob metadata.
func metaCmd(opts *globalOptions) *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "meta <container> <blob>",
		Short: "Show blob properties or merge metadata",
		Long: `Show blob properties as JSON. With --set, merge the given pairs over the
existing metadata first.

Examples:
  blobctl meta docs report.pdf
  blobctl meta docs report.pdf --set status=reviewed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(set)
			if err != nil {
				return err
			}

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			if len(metadata) > 0 {
				if err := client.AddMetadata(cmd.Context(), args[0], args[1], metadata); err != nil {
					return err
				}
			}

			props, err := client.GetProperties(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(props)
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "Metadata to merge as key=value, repeatable")

	return cmd
}

// urlCmd returns the command printing a blob's URL.
func urlCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url <container> <blob>",
		Short: "Print the URL of an existing blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			u, err := client.URL(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}
