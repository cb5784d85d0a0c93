//go:generate go run github.com/golang/mock/mockgen -source=${GOFILE} -destination=zz_generated_local_mocks_test.go -package=mirror AlbumSource,Uploader

package mirror

import (
	"context"
	"io"

	"github.com/ccfrost/albumsync/internal/album"
	"github.com/ccfrost/albumsync/internal/storage"
)

// AlbumSource defines the album operations the syncer needs.
type AlbumSource interface {
	Fetch(ctx context.Context, albumID string) (*album.Snapshot, error)
}

// Uploader defines the storage operations the syncer needs.
type Uploader interface {
	Upload(ctx context.Context, photoID, sourceURL string) (storage.Result, error)
	Key(sourceURL string) (string, error)
	SetProgress(w io.Writer)
}
