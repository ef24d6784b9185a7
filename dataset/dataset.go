// Package dataset downloads a blob manifest's file set from a remote
// HTTP(S) object store with bounded concurrency. It is adapted from the
// teacher's downloader.Downloader: the same worker-pool-over-a-job-channel
// shape and per-request retry-with-backoff loop, but fanned out across
// many independent small blobs instead of chunking one large file by byte
// range — this package's whole reason for existing is "the files here are
// small", so chunking within a file buys nothing.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v2"
)

const (
	defaultConcurrency = 10
	defaultMaxRetries  = 5
	defaultBaseBackoff = 1 * time.Second
)

// BlobSpec names one remote blob and where it lands on disk, relative to
// the dataset's input directory — the same LocalPath/FileID shape
// manifest.Load produces, so a downloaded dataset can be fed straight
// into manifest parsing afterward.
type BlobSpec struct {
	URL       string `yaml:"url"`
	LocalPath string `yaml:"local_path"`
	FileID    string `yaml:"file_id"`
}

// Manifest is the download-side listing: a base URL plus the blob set,
// loaded from a YAML config (gopkg.in/yaml.v2, matching the teacher's
// cmd-car-split.go subset-metadata use of the same library).
type Manifest struct {
	BaseURL string     `yaml:"base_url"`
	Blobs   []BlobSpec `yaml:"blobs"`
}

// LoadManifest parses a YAML dataset manifest from r.
func LoadManifest(r io.Reader) (Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Manifest{}, fmt.Errorf("dataset: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("dataset: parsing manifest: %w", err)
	}
	return m, nil
}

// Config bundles the downloader's tunables.
type Config struct {
	Concurrency int
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns the teacher-downloader-equivalent defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: defaultConcurrency,
		MaxRetries:  defaultMaxRetries,
		BaseBackoff: defaultBaseBackoff,
		Logger:      slog.Default(),
	}
}

// blobJob and blobResult mirror downloader.go's chunkJob/downloadedChunk
// shape, one level up: one job per blob instead of one job per byte range.
type blobJob struct {
	spec BlobSpec
}

type blobResult struct {
	spec BlobSpec
	err  error
}

// Downloader fetches a Manifest's blobs into a destination directory with
// bounded worker-pool concurrency.
type Downloader struct {
	cfg      Config
	client   *http.Client
	destRoot string
}

// New constructs a Downloader with the real *http.Client, matching
// downloader.go's dual-stack HTTP/2-then-HTTP/1 transport.
func New(cfg Config) *Downloader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Downloader{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     true,
				IdleConnTimeout:       30 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   100,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// SetHTTPClient overrides the HTTP client, the same seam
// downloader.Downloader.SetHTTPClient exposes, so tests can point at an
// httptest.Server or a transport stub instead of the network.
func (d *Downloader) SetHTTPClient(client *http.Client) {
	d.client = client
}

// DownloadAll fetches every blob in m into destDir, using cfg.Concurrency
// workers. A per-blob failure (after retries) is returned in the
// aggregate error but does not stop other workers — mirrors spec.md's
// "single-file failure assigns a sentinel and continues" policy, except
// here there is no sentinel to assign: a missing file just isn't usable
// later and the caller is told which ones failed.
func (d *Downloader) DownloadAll(ctx context.Context, m Manifest, destDir string) error {
	d.destRoot = destDir
	jobs := make(chan blobJob)
	results := make(chan blobResult, len(m.Blobs))

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Concurrency; i++ {
		wg.Add(1)
		go d.worker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, b := range m.Blobs {
			b.URL = resolveURL(m.BaseURL, b.URL)
			select {
			case jobs <- blobJob{spec: b}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	bar := progressbar.Default(int64(len(m.Blobs)), "fetching blobs")

	var failures []error
	for res := range results {
		bar.Add(1)
		if res.err != nil {
			d.cfg.Logger.Warn("dataset: blob download failed", "file_id", res.spec.FileID, "err", res.err)
			failures = append(failures, fmt.Errorf("%s: %w", res.spec.FileID, res.err))
		}
	}
	bar.Close()
	if len(failures) > 0 {
		return fmt.Errorf("dataset: %d of %d blobs failed to download: %v", len(failures), len(m.Blobs), failures[0])
	}
	return nil
}

func (d *Downloader) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan blobJob, results chan<- blobResult) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			err := d.downloadOne(ctx, job.spec, destPath(job.spec))
			select {
			case results <- blobResult{spec: job.spec, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func destPath(spec BlobSpec) string {
	return filepath.Join(spec.LocalPath, spec.FileID)
}

// resolveURL joins a possibly-relative blob URL against the manifest's
// base URL; an absolute blob URL (with a scheme) is returned unchanged.
func resolveURL(base, ref string) string {
	if strings.Contains(ref, "://") || base == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// downloadOne fetches one blob with retry-with-backoff, the same shape as
// downloader.go's downloadChunk loop.
func (d *Downloader) downloadOne(ctx context.Context, spec BlobSpec, relPath string) error {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := d.cfg.BaseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
		if err != nil {
			return err
		}
		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status: %s", resp.Status)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}
		return writeBlob(d.destRoot, relPath, body)
	}
	return fmt.Errorf("failed after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}

func writeBlob(root, relPath string, data []byte) error {
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(full, data, 0o644)
}
