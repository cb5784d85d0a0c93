package album

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ccfrost/albumsync/internal/config"
	"github.com/ccfrost/albumsync/internal/logging"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// statusMoved is what the shared streams API answers when the album lives on
	// another partition. The body names the host to use instead.
	statusMoved = 330

	// assetBatchSize caps how many photo guids are sent per webasseturls call.
	assetBatchSize = 25
)

var logger = logging.New()

// Client fetches shared albums from the iCloud shared streams API.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// NewClient returns a client configured from cfg.
// A non-empty cfg.BaseURL replaces the partition host derived from the album token.
func NewClient(cfg config.AlbumConfig) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.Retries
	hc.HTTPClient.Timeout = cfg.Timeout
	hc.Logger = logger
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type webstreamResponse struct {
	StreamName string           `json:"streamName"`
	Photos     []webstreamPhoto `json:"photos"`
	MMeHost    string           `json:"X-Apple-MMe-Host"`
}

type webstreamPhoto struct {
	PhotoGUID   string                         `json:"photoGuid"`
	Caption     string                         `json:"caption"`
	Width       flexInt                        `json:"width"`
	Height      flexInt                        `json:"height"`
	Derivatives map[string]webstreamDerivative `json:"derivatives"`
}

type webstreamDerivative struct {
	Checksum string  `json:"checksum"`
	FileSize flexInt `json:"fileSize"`
	Width    flexInt `json:"width"`
	Height   flexInt `json:"height"`
}

type assetURLsResponse struct {
	Items     map[string]assetItem     `json:"items"`
	Locations map[string]assetLocation `json:"locations"`
}

type assetItem struct {
	URLLocation string `json:"url_location"`
	URLPath     string `json:"url_path"`
}

type assetLocation struct {
	Scheme string   `json:"scheme"`
	Hosts  []string `json:"hosts"`
}

// Fetch returns the photos of the album identified by albumID, a token or share link.
// Derivative URLs are resolved, so each Derivative with a published location
// has a fetchable URL.
func (c *Client) Fetch(ctx context.Context, albumID string) (*Snapshot, error) {
	token := ParseToken(albumID)
	if token == "" {
		return nil, fmt.Errorf("empty album token")
	}
	base, err := c.streamBase(token)
	if err != nil {
		return nil, err
	}

	var stream webstreamResponse
	status, err := c.post(ctx, base+"webstream", map[string]any{"streamCtag": nil}, &stream)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album stream: %w", err)
	}
	if status == statusMoved {
		if stream.MMeHost == "" {
			return nil, fmt.Errorf("album stream moved without a target host")
		}
		base, err = movedBase(base, stream.MMeHost, token)
		if err != nil {
			return nil, err
		}
		logger.Debug("Album stream lives on another partition", slog.String("base", base))
		stream = webstreamResponse{}
		if status, err = c.post(ctx, base+"webstream", map[string]any{"streamCtag": nil}, &stream); err != nil {
			return nil, fmt.Errorf("failed to fetch album stream: %w", err)
		}
		if status == statusMoved {
			return nil, fmt.Errorf("album stream moved twice")
		}
	}

	snapshot := &Snapshot{StreamName: stream.StreamName}
	if len(stream.Photos) == 0 {
		return snapshot, nil
	}

	guids := make([]string, 0, len(stream.Photos))
	for _, p := range stream.Photos {
		guids = append(guids, p.PhotoGUID)
	}
	urls, err := c.assetURLs(ctx, base, guids)
	if err != nil {
		return nil, err
	}

	for _, p := range stream.Photos {
		photo := Photo{
			ID:          p.PhotoGUID,
			Caption:     p.Caption,
			Width:       int(p.Width),
			Height:      int(p.Height),
			Derivatives: make(map[string]Derivative, len(p.Derivatives)),
		}
		for name, d := range p.Derivatives {
			photo.Derivatives[name] = Derivative{
				Name:     name,
				Checksum: d.Checksum,
				FileSize: int64(d.FileSize),
				Width:    int(d.Width),
				Height:   int(d.Height),
				URL:      urls[d.Checksum],
			}
		}
		snapshot.Photos = append(snapshot.Photos, photo)
	}
	logger.Debug("Fetched album",
		slog.String("stream_name", snapshot.StreamName),
		slog.Int("photos", len(snapshot.Photos)))
	return snapshot, nil
}

// assetURLs maps derivative checksums to download URLs.
func (c *Client) assetURLs(ctx context.Context, base string, guids []string) (map[string]string, error) {
	urls := make(map[string]string)
	for start := 0; start < len(guids); start += assetBatchSize {
		end := min(start+assetBatchSize, len(guids))

		var resp assetURLsResponse
		status, err := c.post(ctx, base+"webasseturls", map[string]any{"photoGuids": guids[start:end]}, &resp)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch asset urls: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch asset urls: unexpected status %d", status)
		}
		for checksum, item := range resp.Items {
			loc, ok := resp.Locations[item.URLLocation]
			if !ok || len(loc.Hosts) == 0 {
				logger.Warn("Asset has no known location, skipping",
					slog.String("checksum", checksum),
					slog.String("location", item.URLLocation))
				continue
			}
			scheme := loc.Scheme
			if scheme == "" {
				scheme = "https"
			}
			urls[checksum] = scheme + "://" + loc.Hosts[0] + item.URLPath
		}
	}
	return urls, nil
}

// post sends body as JSON and decodes the response into out.
// Both 200 and the partition-moved status are decoded and returned without error.
func (c *Client) post(ctx context.Context, endpoint string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != statusMoved {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s: unexpected status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: failed to decode response: %w", endpoint, err)
	}
	if resp.StatusCode == statusMoved {
		if host := resp.Header.Get("X-Apple-MMe-Host"); host != "" {
			if ws, ok := out.(*webstreamResponse); ok && ws.MMeHost == "" {
				ws.MMeHost = host
			}
		}
	}
	return resp.StatusCode, nil
}

// streamBase returns the sharedstreams URL prefix, ending in a slash, for token.
func (c *Client) streamBase(token string) (string, error) {
	if c.baseURL != "" {
		return c.baseURL + "/" + token + "/sharedstreams/", nil
	}
	partition, err := partitionFor(token)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://p%02d-sharedstreams.icloud.com/%s/sharedstreams/", partition, token), nil
}

// movedBase swaps the host of base for host, keeping the scheme.
func movedBase(base, host, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid album base url %s: %w", base, err)
	}
	return u.Scheme + "://" + host + "/" + token + "/sharedstreams/", nil
}

// partitionFor decodes the server partition encoded at the start of an album token.
func partitionFor(token string) (int, error) {
	var digits string
	switch {
	case len(token) >= 2 && token[0] == 'A':
		digits = token[1:2]
	case len(token) >= 3:
		digits = token[1:3]
	default:
		return 0, fmt.Errorf("album token %q is too short", token)
	}
	n := 0
	for _, r := range digits {
		i := strings.IndexRune(base62Chars, r)
		if i < 0 {
			return 0, fmt.Errorf("album token %q is not base62", token)
		}
		n = n*62 + i
	}
	return n, nil
}
