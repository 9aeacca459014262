package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/playlist-resolver/internal/meta"
	"github.com/franz/playlist-resolver/internal/report"
	"github.com/franz/playlist-resolver/internal/store"
	"github.com/franz/playlist-resolver/internal/util"
	"github.com/schollz/progressbar/v3"
)

// AudioExtensions are the default supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
}

const lastRefreshKey = "last_refresh_unix"

// Refresher keeps the track catalogue in sync with one or more library roots
type Refresher struct {
	store       *store.Store
	roots       []string
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
}

// Config holds refresher configuration
type Config struct {
	Store          *store.Store
	Roots          []string
	AdditionalExts []string
	Concurrency    int
	Logger         *report.EventLogger
}

// New creates a new Refresher
func New(cfg *Config) *Refresher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		extMap[strings.ToLower(ext)] = true
	}

	return &Refresher{
		store:       cfg.Store,
		roots:       cfg.Roots,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents a refresh result
type Result struct {
	FilesSeen      int
	FilesExtracted int
	FilesSkipped   int
	FilesPurged    int
	Errors         []error
}

// Refresh walks all configured roots and brings the catalogue up to date.
// Files whose mtime matches the stored value are skipped, vanished files
// are purged, everything else goes through tag extraction.
func (r *Refresher) Refresh(ctx context.Context) (*Result, error) {
	result := &Result{
		Errors: make([]error, 0),
	}

	for _, root := range r.roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("library root not accessible: %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("library root is not a directory: %s", root)
		}
	}

	for _, root := range r.roots {
		if err := r.refreshRoot(ctx, root, result); err != nil {
			return result, err
		}
	}

	if err := r.store.SetMeta(lastRefreshKey, strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		return result, fmt.Errorf("failed to record refresh time: %w", err)
	}

	util.SuccessLog("Refresh complete: %d files seen, %d extracted, %d unchanged, %d purged, %d errors",
		result.FilesSeen, result.FilesExtracted, result.FilesSkipped, result.FilesPurged, len(result.Errors))

	return result, nil
}

func (r *Refresher) refreshRoot(ctx context.Context, root string, result *Result) error {
	util.InfoLog("Refreshing library root: %s", root)

	// Pre-load stored mtimes for quick unchanged detection
	known, err := r.store.GetMtimes(root)
	if err != nil {
		return fmt.Errorf("failed to load stored mtimes: %w", err)
	}
	util.InfoLog("Loaded %d catalogued tracks under root", len(known))

	// Paths seen during the walk, for the purge pass afterwards
	var seenMutex sync.Mutex
	seen := make(map[string]bool, len(known))

	// Channel for discovered file paths
	filePaths := make(chan walkItem, 100)

	// Channel for extracted tracks to batch upsert
	extracted := make(chan *store.Track, 1000)

	// Counters for progress reporting (using atomic for thread-safety)
	var filesFound atomic.Int64
	var filesProcessed atomic.Int64
	var filesExtracted atomic.Int64
	var filesSkipped atomic.Int64

	// WaitGroup for workers
	var wg sync.WaitGroup

	// Start progress reporter with visual progress bar
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	// Check if stdout is a terminal (disable progress bar if piped/redirected)
	isTTY := util.IsTerminal(os.Stdout.Fd())
	var bar *progressbar.ProgressBar

	if isTTY && !util.IsQuiet() {
		// Indeterminate progress bar, the walk total is unknown up front
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Refreshing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := filesFound.Load()
				processed := filesProcessed.Load()
				ext := filesExtracted.Load()
				skipped := filesSkipped.Load()

				if bar != nil && found > 0 {
					description := fmt.Sprintf("Refreshing | %d found | %d extracted | %d unchanged",
						found, ext, skipped)
					bar.Describe(description)
					bar.Set64(processed)
				} else if found > 0 {
					util.InfoLog("Progress: found %d audio files, processed %d (extracted: %d, unchanged: %d)",
						found, processed, ext, skipped)
				}
			}
		}
	}()

	var errMutex sync.Mutex

	// Start batch writer goroutine. It drains until the extracted channel
	// closes so workers never block on a full buffer during cancellation.
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		batch := make([]*store.Track, 0, 1000)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			if err := r.store.UpsertTrackBatch(batch); err != nil {
				util.ErrorLog("Failed to batch upsert tracks: %v", err)
				errMutex.Lock()
				result.Errors = append(result.Errors, err)
				errMutex.Unlock()
			}
			batch = batch[:0]
		}

		for {
			select {
			case track, ok := <-extracted:
				if !ok {
					// Channel closed, flush remaining
					flush()
					return
				}
				batch = append(batch, track)
				if len(batch) >= 1000 {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()

	// Start worker pool
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range filePaths {
				// Check for cancellation
				select {
				case <-ctx.Done():
					return
				default:
				}

				track, extractErr := meta.ExtractTrack(item.path, item.mtime)
				filesProcessed.Add(1)

				if extractErr != nil {
					// Tag read failures are soft, the path heuristics still
					// produced a usable record
					util.WarnLog("Tag read failed for %s: %v", item.path, extractErr)
					if r.logger != nil {
						r.logger.LogExtract(item.path, extractErr)
					}
					errMutex.Lock()
					result.Errors = append(result.Errors, extractErr)
					errMutex.Unlock()
				} else if r.logger != nil {
					r.logger.LogExtract(item.path, nil)
				}

				extracted <- track
				filesExtracted.Add(1)
			}
		}()
	}

	// Walk directory tree
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			errMutex.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			errMutex.Unlock()
			return nil // Continue walking
		}

		if d.IsDir() {
			return nil
		}

		// AppleDouble metadata shadows real tracks on mixed-OS shares
		if strings.HasPrefix(d.Name(), "._") {
			return nil
		}

		if !r.isAudioFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			util.WarnLog("Error stating %s: %v", path, err)
			errMutex.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("stat error: %s: %w", path, err))
			errMutex.Unlock()
			return nil
		}

		mtime := info.ModTime().Unix()
		filesFound.Add(1)

		seenMutex.Lock()
		seen[path] = true
		seenMutex.Unlock()

		// Unchanged mtime means the stored record is still good
		if stored, ok := known[path]; ok && stored == mtime {
			filesProcessed.Add(1)
			filesSkipped.Add(1)
			return nil
		}

		select {
		case filePaths <- walkItem{path: path, mtime: mtime}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	// Close channel and wait for workers
	close(filePaths)
	wg.Wait()

	// Close extracted channel and wait for batch writer
	close(extracted)
	writerWg.Wait()

	cancelProgress()

	if bar != nil {
		bar.Finish()
	}

	result.FilesSeen += int(filesFound.Load())
	result.FilesExtracted += int(filesExtracted.Load())
	result.FilesSkipped += int(filesSkipped.Load())

	// An interrupted walk has not seen every surviving file, so purging
	// would delete rows for files that are still on disk. Completed
	// batches stay committed; only the purge and the success path depend
	// on a full walk.
	if walkErr != nil {
		return fmt.Errorf("walk failed: %w", walkErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Purge catalogue entries whose files vanished
	var stale []string
	for path := range known {
		if !seen[path] {
			stale = append(stale, path)
		}
	}
	if len(stale) > 0 {
		if err := r.store.DeleteTracks(stale); err != nil {
			return fmt.Errorf("failed to purge vanished tracks: %w", err)
		}
		for _, path := range stale {
			util.DebugLog("Purged vanished track: %s", path)
			if r.logger != nil {
				r.logger.LogPurge(path)
			}
		}
	}
	result.FilesPurged += len(stale)

	return nil
}

type walkItem struct {
	path  string
	mtime int64
}

// NeedsRefresh reports whether the last refresh is older than maxAge.
// A catalogue that never refreshed always needs one.
func (r *Refresher) NeedsRefresh(maxAge time.Duration) (bool, error) {
	raw, err := r.store.GetMeta(lastRefreshKey, "")
	if err != nil {
		return false, fmt.Errorf("failed to read refresh time: %w", err)
	}
	if raw == "" {
		return true, nil
	}

	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true, nil
	}

	return time.Since(time.Unix(last, 0)) > maxAge, nil
}

// LastRefresh returns the time of the last completed refresh, zero if never
func (r *Refresher) LastRefresh() (time.Time, error) {
	raw, err := r.store.GetMeta(lastRefreshKey, "")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read refresh time: %w", err)
	}
	if raw == "" {
		return time.Time{}, nil
	}

	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}

	return time.Unix(last, 0), nil
}

// isAudioFile checks if a file has a supported audio extension
func (r *Refresher) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return r.extensions[ext]
}
