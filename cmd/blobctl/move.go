package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// mvCmd returns the command moving or copying a blob.
func mvCmd(opts *globalOptions) *cobra.Command {
	var (
		destAccount string
		meta        []string
		keep        bool
		poll        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mv <container> <blob> <dest-container> [dest-blob]",
		Short: "Move a blob, optionally to another account",
		Long: `Copy a blob server-side and delete the source. The destination blob name
defaults to the source name. Metadata given with --meta is merged over the
source metadata.

Examples:
  blobctl mv incoming upload.xml processed 2024/upload.xml --meta status=done
  blobctl mv incoming logo.png logos --dest-account imageService --keep`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := blobtypes.MoveRequest{
				SourceContainer:      args[0],
				SourceBlob:           args[1],
				DestinationContainer: args[2],
				DestinationBlob:      args[1],
			}
			if len(args) == 4 {
				req.DestinationBlob = args[3]
			}

			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			req.Metadata = metadata

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			if destAccount != "" {
				req.DestinationConnectionString, err = client.AccountConnectionString(destAccount)
				if err != nil {
					return err
				}
			}

			run, verb := client.Move, "Moved"
			if keep {
				run, verb = client.Copy, "Copied"
			}
			if err := run(cmd.Context(), req, blobstore.WithPollInterval(poll)); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s %s/%s to %s/%s\n",
				verb, req.SourceContainer, req.SourceBlob, req.DestinationContainer, req.DestinationBlob)
			return nil
		},
	}

	cmd.Flags().StringVar(&destAccount, "dest-account", "", "Named account holding the destination container")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata to merge as key=value, repeatable")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the source (copy instead of move)")
	cmd.Flags().DurationVar(&poll, "poll-interval", 0, "Delay between status polls of a pending copy")

	return cmd
}

