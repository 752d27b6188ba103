package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/config"
)

type globalOptions struct {
	envFiles []string
	account  string
	verbose  bool
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// client loads configuration and returns a client bound to the selected account.
func (o *globalOptions) client(cmd *cobra.Command) (*blobstore.Client, error) {
	logger := o.logger(cmd.ErrOrStderr())

	cfg, err := config.Load(config.LoadOptions{
		EnvFiles: o.envFiles,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	client, err := blobstore.NewFromConfig(cfg, blobstore.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if o.account == "" {
		return client, nil
	}
	return client.Account(o.account)
}

// parseMetadata turns k=v pairs into a metadata map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func uploadOptions(contentType string, metadata map[string]string, tracker blobtypes.ProgressTracker) []blobtypes.UploadOption {
	var opts []blobtypes.UploadOption
	if contentType != "" {
		opts = append(opts, blobstore.WithContentType(contentType))
	}
	if len(metadata) > 0 {
		opts = append(opts, blobstore.WithMetadata(metadata))
	}
	if tracker != nil {
		opts = append(opts, blobstore.WithProgress(tracker))
	}
	return opts
}
