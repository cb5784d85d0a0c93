// Package album reads iCloud shared albums and picks which rendition of
// each photo to mirror.
package album

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Snapshot is the content of an album at the time it was fetched.
type Snapshot struct {
	StreamName string
	Photos     []Photo
}

// Photo is one item of a shared album.
type Photo struct {
	ID      string
	Caption string
	Width   int
	Height  int

	// Derivatives maps rendition names (eg, "342", "2049", "720p") to renditions.
	Derivatives map[string]Derivative
}

// Derivative is one resolution or format of a photo.
type Derivative struct {
	Name     string
	Checksum string
	FileSize int64
	Width    int
	Height   int
	// URL is empty when the album did not publish a location for the rendition.
	URL string
}

// BestDerivative returns the derivative with the largest file size.
// Derivatives without a URL or with a zero size are never chosen. Ties go to the
// last candidate in rendition-name order. ok is false when nothing qualifies.
func BestDerivative(derivatives map[string]Derivative) (best Derivative, ok bool) {
	names := make([]string, 0, len(derivatives))
	for name := range derivatives {
		names = append(names, name)
	}
	slices.Sort(names)

	var size int64
	for _, name := range names {
		d := derivatives[name]
		if d.URL == "" || d.FileSize <= 0 {
			continue
		}
		if d.FileSize >= size {
			best, size, ok = d, d.FileSize, true
		}
	}
	return best, ok
}

// ParseToken returns the album token from either a bare token or a share link
// such as https://www.icloud.com/sharedalbum/#B0z5qAGN1JIFd3y.
func ParseToken(albumID string) string {
	albumID = strings.TrimSpace(albumID)
	if i := strings.LastIndex(albumID, "#"); i >= 0 {
		albumID = albumID[i+1:]
	}
	if i := strings.Index(albumID, ";"); i >= 0 {
		albumID = albumID[:i]
	}
	return albumID
}

// flexInt decodes integers that the shared streams API sends either as JSON
// numbers or as strings.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", b, err)
	}
	*n = flexInt(v)
	return nil
}

var _ json.Unmarshaler = (*flexInt)(nil)
