package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ccfrost/albumsync/commands"
	"github.com/ccfrost/albumsync/internal/config"
	"github.com/spf13/cobra"
)

const albumsync = "albumsync"

func main() {
	var configPath string
	var cfg config.Config

	rootCmd := cobra.Command{
		Use:   albumsync,
		Short: "Mirror a shared photo album into a storage bucket",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	syncCmd := cobra.Command{
		Use:   "sync",
		Short: "Upload album photos that are not in the ledger yet",
		Long: `Fetch the shared album, upload the largest rendition of every photo
that the ledger does not list, and append the uploaded photos to the ledger.
By default a single failed upload leaves the ledger untouched; set
ledger.partial_updates to record the uploads that succeeded.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			dryRun, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				fmt.Fprintln(os.Stderr, "error: invalid dry-run flag:", err)
				os.Exit(1)
			}
			progress, err := cmd.Flags().GetBool("progress")
			if err != nil {
				fmt.Fprintln(os.Stderr, "error: invalid progress flag:", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			syncer, err := commands.NewSyncer(cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			if progress {
				syncer.ShowProgress(os.Stdout)
			}
			if err := commands.Sync(ctx, syncer, cfg.AlbumID, dryRun, os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}
	syncCmd.Flags().BoolP("dry-run", "n", false, "Print what would be uploaded without uploading")
	syncCmd.Flags().Bool("progress", true, "Show an upload progress bar")
	rootCmd.AddCommand(&syncCmd)

	listCmd := cobra.Command{
		Use:   "list",
		Short: "List album photos and whether they are mirrored",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			syncer, err := commands.NewSyncer(cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			if err := commands.List(ctx, syncer, cfg.AlbumID, os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}
	rootCmd.AddCommand(&listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
