package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ccfrost/albumsync/internal/album"
	"github.com/ccfrost/albumsync/internal/config"
	"github.com/ccfrost/albumsync/internal/ledger"
	"github.com/ccfrost/albumsync/internal/mirror"
	"github.com/ccfrost/albumsync/internal/storage"
	"github.com/dustin/go-humanize"
)

// NewSyncer validates cfg and wires the album client, bucket uploader and
// ledger file it describes.
func NewSyncer(cfg config.Config) (*mirror.Syncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	missing, err := ledger.ParseMissingPolicy(cfg.Ledger.OnMissing)
	if err != nil {
		return nil, err
	}
	minioClient, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return mirror.NewSyncer(cfg,
		album.NewClient(cfg.Album),
		storage.NewUploader(minioClient, cfg.Storage, nil),
		ledger.NewFileStore(cfg.Ledger.Path, missing),
	), nil
}

// Sync runs one batch for albumID and writes a summary to out.
// With dryRun, it only writes what would be uploaded.
func Sync(ctx context.Context, syncer *mirror.Syncer, albumID string, dryRun bool, out io.Writer) error {
	if dryRun {
		inv, err := syncer.Inspect(ctx, albumID)
		if err != nil {
			return err
		}
		if inv.Skipped {
			fmt.Fprintln(out, "No ledger file, nothing to do")
			return nil
		}
		pending := inv.Pending()
		var total int64
		for _, e := range pending {
			total += e.Derivative.FileSize
		}
		fmt.Fprintf(out, "Would upload %d of %d photos (%s)\n", len(pending), len(inv.Entries), humanize.IBytes(uint64(total)))
		for _, e := range pending {
			fmt.Fprintf(out, "\t%s -> %s (%s)\n", e.Photo.ID, e.Key, humanize.IBytes(uint64(e.Derivative.FileSize)))
		}
		return nil
	}

	res, err := syncer.Run(ctx, albumID)
	fmt.Fprintf(out, "Uploaded %d photos, skipped %d", len(res.Uploaded), res.Skipped)
	if len(res.Failed) > 0 {
		fmt.Fprintf(out, ", %d failed", len(res.Failed))
	}
	fmt.Fprintln(out)
	return err
}
