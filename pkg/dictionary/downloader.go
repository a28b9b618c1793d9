package dictionary

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Top-level directories extracted from a resource bundle.
const (
	DictionariesDir = "dictionaries"
	ModelsDir       = "lemmaModels"
)

// ErrUnsafePath is returned for archive entries escaping the destination.
var ErrUnsafePath = errors.New("dictionary: unsafe path in archive")

// HTTPClient is used by Fetch.
var HTTPClient = &http.Client{Timeout: 5 * time.Minute}

// EnsureResources makes sure dir contains a dictionaries directory, fetching
// the bundle at url when it does not.
func EnsureResources(ctx context.Context, dir, url string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(filepath.Join(dir, DictionariesDir)); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if url == "" {
		return fmt.Errorf("resources not found in %s and no fetch url given", dir)
	}
	logger.Info("resources not found, downloading", zap.String("dir", dir), zap.String("url", url))
	n, err := Fetch(ctx, url, dir)
	if err != nil {
		return fmt.Errorf("fetch resources: %w", err)
	}
	logger.Info("resources extracted", zap.Int("files", n))
	return nil
}

// Fetch downloads a .tar.gz (or .tar.zst) bundle and extracts its
// dictionaries/ and lemmaModels/ entries into destDir. Entries may sit under a
// single wrapping directory. It returns the number of files written.
func Fetch(ctx context.Context, url, destDir string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "lemmata")
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	var r io.Reader
	if strings.HasSuffix(url, ".zst") {
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	} else {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return extract(tar.NewReader(r), destDir)
}

func extract(tr *tar.Reader, destDir string) (int, error) {
	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, err
	}
	written := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("error reading tar archive: %w", err)
		}
		rel, ok, err := resourcePath(hdr.Name)
		if err != nil {
			return written, err
		}
		if !ok {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return written, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return written, err
			}
			written++
		}
	}
	if written == 0 {
		return 0, fmt.Errorf("no %s or %s entries found in archive", DictionariesDir, ModelsDir)
	}
	return written, nil
}

// resourcePath maps an archive entry name to its path below the resources
// root, skipping entries outside dictionaries/ and lemmaModels/.
func resourcePath(name string) (string, bool, error) {
	if path.IsAbs(name) {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	parts := strings.Split(strings.TrimPrefix(name, "./"), "/")
	for _, p := range parts {
		if p == ".." {
			return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
		}
	}
	for i, p := range parts {
		if i > 1 {
			break
		}
		if p == DictionariesDir || p == ModelsDir {
			rel := path.Clean(strings.Join(parts[i:], "/"))
			return rel, true, nil
		}
	}
	return "", false, nil
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return out.Close()
}
