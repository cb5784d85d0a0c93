//go:generate go run github.com/golang/mock/mockgen -source=${GOFILE} -destination=zz_generated_mocks_test.go -package=storage ObjectStore

// Package storage streams remote photos into an S3-compatible bucket.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ccfrost/albumsync/internal/config"
	"github.com/ccfrost/albumsync/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// sniffLen is how much of a stream is inspected when the URL has no extension.
const sniffLen = 3072

// streamPartSize bounds the multipart buffer when the source sends no length.
// It is the smallest part size S3 accepts.
const streamPartSize = 16 << 20

var logger = logging.New()

// ObjectStore is the subset of *minio.Client the uploader uses.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Result describes one stored object.
type Result struct {
	PhotoID     string
	Filename    string
	Key         string
	ContentType string
	Size        int64
}

// Uploader copies remote files into a bucket without buffering them whole.
type Uploader struct {
	store    ObjectStore
	http     *http.Client
	bucket   string
	folder   string
	progress io.Writer
}

// NewMinioClient connects to the bucket's endpoint using static credentials.
func NewMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Region: cfg.Region,
		Secure: cfg.UseSSL,
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client for %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// NewUploader returns an uploader writing into cfg.Bucket under cfg.Folder.
// httpClient fetches the source files; nil means a pooled default client.
func NewUploader(store ObjectStore, cfg config.StorageConfig, httpClient *http.Client) *Uploader {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	return &Uploader{
		store:  store,
		http:   httpClient,
		bucket: cfg.Bucket,
		folder: strings.Trim(cfg.Folder, "/"),
	}
}

// SetProgress makes the uploader copy every streamed byte count into w.
// w must be safe for concurrent use.
func (u *Uploader) SetProgress(w io.Writer) {
	u.progress = w
}

// Key returns the object key that a file from sourceURL is stored under.
func (u *Uploader) Key(sourceURL string) (string, error) {
	filename, err := Filename(sourceURL)
	if err != nil {
		return "", err
	}
	return u.keyFor(filename), nil
}

func (u *Uploader) keyFor(filename string) string {
	if u.folder == "" {
		return filename
	}
	return u.folder + "/" + filename
}

// Upload streams sourceURL into the bucket and returns what was stored.
// The object's content type comes from the file extension, or from the first
// bytes of the stream when there is none.
func (u *Uploader) Upload(ctx context.Context, photoID, sourceURL string) (Result, error) {
	filename, err := Filename(sourceURL)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		PhotoID:  photoID,
		Filename: filename,
		Key:      u.keyFor(filename),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request for %s: %w", filename, err)
	}
	resp, err := u.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("failed to fetch %s: unexpected status %d", filename, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if u.progress != nil {
		body = io.TeeReader(body, u.progress)
	}

	if ext := Ext(filename); ext != "" {
		res.ContentType = ContentType(ext)
	} else {
		br := bufio.NewReaderSize(body, sniffLen)
		head, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return Result{}, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		res.ContentType = mimetype.Detect(head).String()
		body = br
	}

	logger.Debug("Uploading",
		slog.String("photo_id", photoID),
		slog.String("key", res.Key),
		slog.String("content_type", res.ContentType),
		slog.Int64("content_length", resp.ContentLength))

	opts := minio.PutObjectOptions{ContentType: res.ContentType}
	if resp.ContentLength < 0 {
		// Without a part size the client sizes each part for a 5 TiB object.
		opts.PartSize = streamPartSize
	}
	info, err := u.store.PutObject(ctx, u.bucket, res.Key, body, resp.ContentLength, opts)
	if err != nil {
		return Result{}, fmt.Errorf("failed to store %s as %s: %w", filename, res.Key, err)
	}
	res.Size = info.Size

	logger.Info("Uploaded",
		slog.String("photo_id", photoID),
		slog.String("key", res.Key),
		slog.String("size", humanize.IBytes(uint64(max(res.Size, 0)))))
	return res, nil
}

// Filename returns the last path element of sourceURL, without any query string.
func Filename(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", sourceURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("source url %q has no file name", sourceURL)
	}
	return name, nil
}

// Ext returns the extension of filename without the leading dot.
func Ext(filename string) string {
	return strings.TrimPrefix(path.Ext(filename), ".")
}

// ContentType returns the image type for an extension, as image/<ext> in lower case.
func ContentType(ext string) string {
	return "image/" + strings.ToLower(ext)
}
