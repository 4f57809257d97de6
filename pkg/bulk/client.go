package bulk

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bulkfin/bulkfin-go/internal/logging"
	"github.com/bulkfin/bulkfin-go/pkg/config"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

const (
	// DefaultTimeout is the HTTP timeout for bulk downloads. The files run
	// to hundreds of megabytes on the paid plans.
	DefaultTimeout = 5 * time.Minute

	// DefaultRateLimit is the allowed download rate in requests per second.
	DefaultRateLimit = 2

	// downloadConcurrency caps parallel downloads in LoadMany.
	downloadConcurrency = 4
)

// Client downloads bulk datasets and loads them from the download
// directory, re-downloading when a file is older than the configured
// refresh window.
type Client struct {
	cfg        config.DataConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets a custom download rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a bulk download client. A nil logger discards logs.
func NewClient(cfg config.DataConfig, log *logrus.Logger, opts ...ClientOption) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:     logging.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns where the dataset's CSV lives on disk, whether or not it has
// been downloaded yet.
func (c *Client) Path(dataset, variant, market string) (string, error) {
	d, err := Resolve(dataset)
	if err != nil {
		return "", err
	}
	if err := d.validate(variant, market); err != nil {
		return "", err
	}
	return filepath.Join(c.cfg.DownloadDir(), d.Filename(variant, market)), nil
}

// URL composes the download URL for a dataset. The query parameters keep
// the server's documented order.
func (c *Client) URL(dataset, variant, market string) string {
	var b strings.Builder
	b.WriteString(c.cfg.BaseURL)
	b.WriteString("?dataset=")
	b.WriteString(url.QueryEscape(dataset))
	if variant != "" {
		b.WriteString("&variant=")
		b.WriteString(url.QueryEscape(variant))
	}
	if market != "" {
		b.WriteString("&market=")
		b.WriteString(url.QueryEscape(market))
	}
	if c.cfg.APIKey != "" {
		b.WriteString("&api-key=")
		b.WriteString(url.QueryEscape(c.cfg.APIKey))
	}
	return b.String()
}

// Download fetches a dataset unconditionally and installs its CSV in the
// download directory, returning the file path. The server responds with a
// zip archive holding the CSV; it is extracted and moved into place
// atomically so a failed download never clobbers a good file.
func (c *Client) Download(ctx context.Context, dataset, variant, market string) (string, error) {
	path, err := c.Path(dataset, variant, market)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"dataset": dataset, "variant": variant, "market": market,
	}).Info("Downloading dataset")

	archive, err := c.fetchArchive(ctx, c.URL(dataset, variant, market), dir)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(archive)

	if err := extractCSV(archive, path); err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	c.log.WithField("path", path).Info("Dataset ready")
	return path, nil
}

// fetchArchive streams the response into a uniquely named temp file in dir
// and returns its path. Zip extraction needs random access, so the archive
// must hit disk first.
func (c *Client) fetchArchive(ctx context.Context, rawURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tmp := filepath.Join(dir, ".download-"+uuid.NewString()+".zip")
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// extractCSV pulls the first CSV member out of the archive and renames it
// into place.
func extractCSV(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, member := range zr.File {
		if !strings.HasSuffix(member.Name, ".csv") {
			continue
		}
		src, err := member.Open()
		if err != nil {
			return err
		}
		tmp := dest + "." + uuid.NewString() + ".tmp"
		dst, err := os.Create(tmp)
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmp)
			return err
		}
		return os.Rename(tmp, dest)
	}
	return fmt.Errorf("archive has no csv member")
}

// ensureFresh downloads the dataset unless its CSV already exists and is
// younger than the refresh window. A window of zero days always downloads.
func (c *Client) ensureFresh(ctx context.Context, dataset, variant, market string) (string, error) {
	path, err := c.Path(dataset, variant, market)
	if err != nil {
		return "", err
	}

	refreshDays := c.cfg.RefreshDays
	if dataset == "shareprices" {
		refreshDays = c.cfg.RefreshDaysSharePrices
	}

	st, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return "", err
	case refreshDays > 0 && time.Since(st.ModTime()) < time.Duration(refreshDays)*24*time.Hour:
		c.log.WithField("path", path).Debug("Dataset is up to date")
		return path, nil
	}
	return c.Download(ctx, dataset, variant, market)
}

// Load returns the dataset as a panel, downloading it first when the local
// copy is missing or stale. Fundamentals and share prices group by ticker;
// see readPanel for the CSV conventions.
func (c *Client) Load(ctx context.Context, dataset, variant, market string) (*panel.Panel, error) {
	d, err := Resolve(dataset)
	if err != nil {
		return nil, err
	}
	if !d.Dated() {
		return nil, fmt.Errorf("dataset %q has no date axis, use LoadTable", dataset)
	}
	path, err := c.ensureFresh(ctx, dataset, variant, market)
	if err != nil {
		return nil, err
	}
	return readPanel(path, d.DateColumn)
}

// LoadTable returns the dataset's rows verbatim, downloading first when
// needed. Meant for the reference listings, but works for any dataset.
func (c *Client) LoadTable(ctx context.Context, dataset, variant, market string) (*Table, error) {
	path, err := c.ensureFresh(ctx, dataset, variant, market)
	if err != nil {
		return nil, err
	}
	return readTable(path)
}

// Spec names one dataset load for LoadMany.
type Spec struct {
	Dataset string
	Variant string
	Market  string
}

// LoadMany loads several datasets concurrently. The first failure cancels
// the remaining downloads.
func (c *Client) LoadMany(ctx context.Context, specs ...Spec) (map[Spec]*panel.Panel, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)

	var mu sync.Mutex
	out := make(map[Spec]*panel.Panel, len(specs))
	for _, s := range specs {
		g.Go(func() error {
			p, err := c.Load(ctx, s.Dataset, s.Variant, s.Market)
			if err != nil {
				return err
			}
			mu.Lock()
			out[s] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
