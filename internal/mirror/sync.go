// Package mirror runs one batch: fetch an album, find the photos the ledger
// does not have, upload them, and record the results.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ccfrost/albumsync/internal/album"
	"github.com/ccfrost/albumsync/internal/config"
	"github.com/ccfrost/albumsync/internal/ledger"
	"github.com/ccfrost/albumsync/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Reasons an entry is not uploaded.
const (
	ReasonNoDerivative = "no derivative"
	ReasonInvalidURL   = "invalid url"
	ReasonRecorded     = "recorded"
	ReasonDuplicate    = "duplicate in batch"
)

// Entry is one album photo and what the syncer decided about it.
type Entry struct {
	Photo      album.Photo
	Derivative album.Derivative
	// Key is the object key the derivative is stored under.
	Key string
	// LedgerKey is what the ledger records for this photo: its ID or filename.
	LedgerKey string
	// Reason is empty when the photo needs uploading.
	Reason string
}

func (e Entry) Pending() bool {
	return e.Reason == ""
}

// Inventory is an album snapshot classified against the ledger.
type Inventory struct {
	StreamName string
	Entries    []Entry
	// Skipped is set when there was no ledger and the run should do nothing.
	Skipped bool

	ledger []string
}

// Pending returns the entries that need uploading, in album order.
func (inv Inventory) Pending() []Entry {
	var pending []Entry
	for _, e := range inv.Entries {
		if e.Pending() {
			pending = append(pending, e)
		}
	}
	return pending
}

// ItemError reports the failure of one photo's upload.
type ItemError struct {
	PhotoID string
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("photo %s: %v", e.PhotoID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Result summarizes a batch.
type Result struct {
	// Uploaded holds the ledger keys that were stored, in album order.
	Uploaded []string
	// Skipped counts photos that were not uploaded because of their Entry.Reason.
	Skipped int
	Failed  []*ItemError
}

// Syncer mirrors one album into a bucket.
type Syncer struct {
	source   AlbumSource
	uploader Uploader
	store    ledger.Store

	recordFilenames  bool
	partialUpdates   bool
	maxConcurrent    int
	uploadsPerSecond float64

	progressOut    io.Writer
	newProgressBar func(w io.Writer, size int64, description string) *progressbar.ProgressBar
}

// NewSyncer returns a syncer using the ledger and concurrency settings from cfg.
func NewSyncer(cfg config.Config, source AlbumSource, uploader Uploader, store ledger.Store) *Syncer {
	return &Syncer{
		source:           source,
		uploader:         uploader,
		store:            store,
		recordFilenames:  cfg.Ledger.Record == config.RecordFilename,
		partialUpdates:   cfg.Ledger.PartialUpdates,
		maxConcurrent:    cfg.MaxConcurrentUploads,
		uploadsPerSecond: cfg.UploadsPerSecond,
	}
}

// ShowProgress turns on a byte progress bar for uploads, drawn on w.
func (s *Syncer) ShowProgress(w io.Writer) {
	s.progressOut = w
	s.newProgressBar = NewProgressBar
}

// Inspect loads the ledger, fetches the album, and classifies each photo.
// Nothing is uploaded or written.
func (s *Syncer) Inspect(ctx context.Context, albumID string) (Inventory, error) {
	entries, err := s.store.Load()
	if errors.Is(err, ledger.ErrSkipRun) {
		return Inventory{Skipped: true}, nil
	}
	if err != nil {
		return Inventory{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	snapshot, err := s.source.Fetch(ctx, albumID)
	if err != nil {
		return Inventory{}, fmt.Errorf("failed to fetch album %s: %w", albumID, err)
	}

	inv := Inventory{
		StreamName: snapshot.StreamName,
		Entries:    make([]Entry, 0, len(snapshot.Photos)),
		ledger:     entries,
	}
	recorded := ledger.New(entries)
	scheduled := make(map[string]struct{})
	for _, photo := range snapshot.Photos {
		inv.Entries = append(inv.Entries, s.classify(photo, recorded, scheduled))
	}
	return inv, nil
}

func (s *Syncer) classify(photo album.Photo, recorded *ledger.Ledger, scheduled map[string]struct{}) Entry {
	e := Entry{Photo: photo}

	d, ok := album.BestDerivative(photo.Derivatives)
	if !ok {
		e.Reason = ReasonNoDerivative
		return e
	}
	e.Derivative = d

	key, err := s.uploader.Key(d.URL)
	if err != nil {
		logger.Warn("Skipping photo with unusable url",
			slog.String("photo_id", photo.ID),
			slog.String("error", err.Error()))
		e.Reason = ReasonInvalidURL
		return e
	}
	e.Key = key

	e.LedgerKey = photo.ID
	if s.recordFilenames {
		// Key succeeded, so the URL has a file name.
		e.LedgerKey, _ = storage.Filename(d.URL)
	}

	if recorded.Has(e.LedgerKey) {
		e.Reason = ReasonRecorded
		return e
	}
	if _, dup := scheduled[e.LedgerKey]; dup {
		e.Reason = ReasonDuplicate
		return e
	}
	scheduled[e.LedgerKey] = struct{}{}
	return e
}

// Run mirrors every photo of the album that the ledger does not have yet.
//
// By default the batch is all or nothing: if any upload fails, the ledger is not
// written and the error is returned. With partial ledger updates, successful
// uploads are recorded and the failures are returned joined.
// An empty album, or one with nothing new, leaves the ledger untouched.
func (s *Syncer) Run(ctx context.Context, albumID string) (Result, error) {
	inv, err := s.Inspect(ctx, albumID)
	if err != nil {
		return Result{}, err
	}
	if inv.Skipped {
		return Result{}, nil
	}
	if len(inv.Entries) == 0 {
		logger.Info("Album has no photos, nothing to upload", slog.String("album", inv.StreamName))
		return Result{}, nil
	}

	pending := inv.Pending()
	res := Result{Skipped: len(inv.Entries) - len(pending)}
	if len(pending) == 0 {
		logger.Info("No new photos to upload",
			slog.String("album", inv.StreamName),
			slog.Int("photos", len(inv.Entries)))
		return res, nil
	}

	var totalSize int64
	for _, e := range pending {
		totalSize += e.Derivative.FileSize
	}
	logger.Info("Found photos to upload",
		slog.String("album", inv.StreamName),
		slog.Int("count", len(pending)),
		slog.Int("skipped", res.Skipped),
		slog.String("total_size", humanize.IBytes(uint64(totalSize))))

	uploaded, failed := s.uploadAll(ctx, pending, totalSize)
	res.Failed = failed

	if len(failed) > 0 && !s.partialUpdates {
		return res, fmt.Errorf("batch failed, ledger not updated: %w", joinItemErrors(failed))
	}

	res.Uploaded = uploaded
	if len(uploaded) > 0 {
		if _, err := s.store.Save(inv.ledger, uploaded); err != nil {
			return res, fmt.Errorf("failed to save ledger: %w", err)
		}
	}
	logger.Info("Finished uploading",
		slog.Int("uploaded", len(uploaded)),
		slog.Int("failed", len(failed)))

	if len(failed) > 0 {
		return res, fmt.Errorf("%d of %d uploads failed: %w", len(failed), len(pending), joinItemErrors(failed))
	}
	return res, nil
}

func joinItemErrors(failed []*ItemError) error {
	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// uploadAll uploads pending entries concurrently. It returns the ledger keys of
// the successes and the failures, both in album order.
// Without partial updates the first failure cancels the uploads still running.
func (s *Syncer) uploadAll(ctx context.Context, pending []Entry, totalSize int64) ([]string, []*ItemError) {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if s.uploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.uploadsPerSecond), 1)
	}

	var bar *progressbar.ProgressBar
	if s.newProgressBar != nil {
		bar = s.newProgressBar(s.progressOut, totalSize, "Uploading photos")
		s.uploader.SetProgress(bar)
		defer func() {
			s.uploader.SetProgress(nil)
			_ = bar.Finish()
		}()
	}

	var g *errgroup.Group
	gctx := ctx
	if s.partialUpdates {
		g = &errgroup.Group{}
	} else {
		g, gctx = errgroup.WithContext(ctx)
	}
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}

	keys := make([]string, len(pending))
	errs := make([]*ItemError, len(pending))
	for i, e := range pending {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				errs[i] = &ItemError{PhotoID: e.Photo.ID, Err: fmt.Errorf("rate limiter error before uploading: %w", err)}
				return errs[i]
			}
			stored, err := s.uploader.Upload(gctx, e.Photo.ID, e.Derivative.URL)
			if err != nil {
				logger.Error("Upload failed",
					slog.String("photo_id", e.Photo.ID),
					slog.String("key", e.Key),
					slog.String("error", err.Error()))
				errs[i] = &ItemError{PhotoID: e.Photo.ID, Err: err}
				return errs[i]
			}
			keys[i] = stored.PhotoID
			if s.recordFilenames {
				keys[i] = stored.Filename
			}
			return nil
		})
	}
	_ = g.Wait() // Per-item errors are in errs.

	var uploaded []string
	var failed []*ItemError
	for i := range pending {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		uploaded = append(uploaded, keys[i])
	}
	return uploaded, failed
}
