package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ccfrost/albumsync/internal/mirror"
	"github.com/dustin/go-humanize"
)

// List writes one line per album photo: its selected rendition and whether it
// still needs uploading.
func List(ctx context.Context, syncer *mirror.Syncer, albumID string, out io.Writer) error {
	inv, err := syncer.Inspect(ctx, albumID)
	if err != nil {
		return err
	}
	if inv.Skipped {
		fmt.Fprintln(out, "No ledger file, nothing to do")
		return nil
	}

	fmt.Fprintf(out, "Album: %s (%d photos)\n", inv.StreamName, len(inv.Entries))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO\tRENDITION\tSIZE\tKEY\tSTATUS")
	for _, e := range inv.Entries {
		status := "pending"
		if !e.Pending() {
			status = e.Reason
		}
		size := "-"
		if e.Derivative.FileSize > 0 {
			size = humanize.IBytes(uint64(e.Derivative.FileSize))
		}
		rendition := e.Derivative.Name
		if rendition == "" {
			rendition = "-"
		}
		key := e.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Photo.ID, rendition, size, key, status)
	}
	return w.Flush()
}
