package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	concpool "github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/wxlab/datimg/internal/imgcrypt"
)

const (
	negativeCacheSize = 512
	negativeCacheTTL  = 30 * time.Second
	defaultWorkers    = 4
)

// Options configures a Service. AccountRoot, OutputRoot and XORKey are
// required at resolve time; AESKey is only needed for hybrid-v2 accounts.
type Options struct {
	// AccountRoot is the encrypted attachment tree of the account.
	AccountRoot string
	// OutputRoot is where decrypted images are written and indexed.
	OutputRoot string
	// XORKey is the 1-byte hex key string, e.g. "0x37".
	XORKey string
	// AESKey is the optional image key string (16+ characters).
	AESKey string
	// FolderLabel, when set, replaces the first path segment of the output
	// location with a human-readable name. Display-only: it never takes
	// part in identifier matching or cache keys.
	FolderLabel string
	// Workers bounds export concurrency. Zero means a small default.
	Workers int
}

// Service is the resolve entry point: identifier in, decrypted file path
// out. Resolution is synchronous; callers needing cancellation wrap calls
// themselves. Concurrent resolves of the same identifier may both decrypt,
// which is benign last-write-wins on the output file.
type Service struct {
	fs       afero.Fs
	opts     Options
	locator  *Locator
	index    *Index
	negative *lru.Cache[string, time.Time]
	logger   *slog.Logger
}

// NewService creates a resolution service over the given filesystem.
func NewService(fsys afero.Fs, opts Options, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	negative, err := lru.New[string, time.Time](negativeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		fs:       fsys,
		opts:     opts,
		locator:  NewLocator(fsys, opts.AccountRoot),
		index:    NewIndex(fsys, opts.OutputRoot),
		negative: negative,
		logger:   logger,
	}, nil
}

// Index exposes the resolution index, mainly for callers that want to
// force a refresh after out-of-band changes to the output root.
func (s *Service) Index() *Index { return s.index }

// Refresh rebuilds the output index and clears cached negative results.
func (s *Service) Refresh() error {
	s.negative.Purge()
	return s.index.Refresh()
}

// Resolve returns the decrypted file path for a logical image identifier,
// decrypting the source blob on a cache miss. Failures are classified:
// ErrConfigMissing, ErrNotFound, the imgcrypt sentinels, or a wrapped I/O
// error.
func (s *Service) Resolve(id string) (string, error) {
	id = normalizeID(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrNotFound)
	}
	if err := s.checkConfig(); err != nil {
		return "", err
	}

	if path, ok := s.index.Lookup(id, false); ok {
		return path, nil
	}

	if at, ok := s.negative.Get(id); ok {
		if time.Since(at) < negativeCacheTTL {
			return "", fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		s.negative.Remove(id)
	}

	src, err := s.locator.Find(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.negative.Add(id, time.Now())
		}
		return "", err
	}

	out, err := s.decryptToOutput(src)
	if err != nil {
		return "", err
	}

	if err := s.index.Refresh(); err != nil {
		s.logger.Warn("index refresh after decrypt failed", "err", err)
	}
	s.negative.Remove(id)

	s.logger.Debug("image resolved", "id", id, "source", src, "output", out)
	return out, nil
}

func (s *Service) checkConfig() error {
	switch {
	case s.opts.AccountRoot == "":
		return fmt.Errorf("%w: account root not set", ErrConfigMissing)
	case s.opts.OutputRoot == "":
		return fmt.Errorf("%w: output root not set", ErrConfigMissing)
	case s.opts.XORKey == "":
		return fmt.Errorf("%w: xor key not set", ErrConfigMissing)
	}
	return nil
}

func (s *Service) keys() (byte, []byte, error) {
	xorKey, err := imgcrypt.ParseXORKey(s.opts.XORKey)
	if err != nil {
		return 0, nil, fmt.Errorf("xor key: %w", err)
	}
	var aesKey []byte
	if s.opts.AESKey != "" {
		aesKey, err = imgcrypt.ParseAESKey(s.opts.AESKey)
		if err != nil {
			return 0, nil, fmt.Errorf("image key: %w", err)
		}
	}
	return xorKey, aesKey, nil
}

// decryptToOutput decrypts one source blob and writes the plaintext under
// the output root, mirroring the source's relative location with the
// extension normalized to .jpg. The write goes to a temp file and is
// renamed into place so a failed decrypt never leaves a corrupt output.
func (s *Service) decryptToOutput(src string) (string, error) {
	xorKey, aesKey, err := s.keys()
	if err != nil {
		return "", err
	}

	blob, err := afero.ReadFile(s.fs, src)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}

	plain, err := imgcrypt.Decrypt(blob, aesKey, xorKey)
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", src, err)
	}

	out := s.outputPath(src)
	if err := s.writeAtomic(out, plain); err != nil {
		return "", err
	}
	return out, nil
}

func (s *Service) outputPath(src string) string {
	rel := s.locator.RelPath(src)
	ext := filepath.Ext(rel)
	rel = strings.TrimSuffix(rel, ext) + ".jpg"

	if s.opts.FolderLabel != "" {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) > 1 {
			parts[0] = sanitizeLabel(s.opts.FolderLabel)
			rel = filepath.FromSlash(strings.Join(parts, "/"))
		}
	}
	return filepath.Join(s.opts.OutputRoot, rel)
}

func (s *Service) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".datimg-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("flushing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// ExportStats summarizes a bulk export run.
type ExportStats struct {
	Decrypted int
	Skipped   int
	Failed    int
}

// ExportAll decrypts every .dat file under the account root into the
// output root. Files whose output already exists are skipped; individual
// failures are logged and counted rather than aborting the run.
func (s *Service) ExportAll(ctx context.Context) (ExportStats, error) {
	if err := s.checkConfig(); err != nil {
		return ExportStats{}, err
	}
	if _, _, err := s.keys(); err != nil {
		return ExportStats{}, err
	}

	var sources []string
	err := afero.Walk(s.fs, s.opts.AccountRoot, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), datExt) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return ExportStats{}, fmt.Errorf("walking %s: %w", s.opts.AccountRoot, err)
	}

	workers := s.opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var decrypted, skipped, failed atomic.Int64
	pl := concpool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for _, src := range sources {
		src := src // per-iteration copy: the go directive predates Go 1.22 loop scoping
		pl.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if exists, _ := afero.Exists(s.fs, s.outputPath(src)); exists {
				skipped.Add(1)
				return nil
			}
			if _, err := s.decryptToOutput(src); err != nil {
				failed.Add(1)
				s.logger.Warn("export failed", "source", src, "err", err)
				return nil
			}
			decrypted.Add(1)
			return nil
		})
	}
	if err := pl.Wait(); err != nil {
		return ExportStats{}, err
	}

	if err := s.index.Refresh(); err != nil {
		s.logger.Warn("index refresh after export failed", "err", err)
	}
	s.negative.Purge()

	return ExportStats{
		Decrypted: int(decrypted.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// normalizeID lowercases an identifier and strips a source or output
// extension a caller may have left on it.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	switch filepath.Ext(id) {
	case datExt, ".jpg", ".jpeg", ".png", ".gif":
		id = strings.TrimSuffix(id, filepath.Ext(id))
	}
	return id
}

// sanitizeLabel makes a display name safe to use as a directory name.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(label)
}
