package scanner

import (
	"context"
	"sync"
	"sync/atomic"
)

// ProcessResult holds the outcome of processing a single file.
type ProcessResult struct {
	File           FileInfo
	MetadataSource string // "NFO" or "filename"
	FinalPath      string
	Err            error
}

// ProcessFunc processes a single FileInfo and returns the metadata source,
// the destination the file ended up at, and any error encountered.
type ProcessFunc func(ctx context.Context, file FileInfo) (metadataSource string, finalPath string, err error)

// PathGuard provides thread-safe destination deduplication. Multiple
// goroutines can safely call TryClaim; only the first caller for a given
// destination succeeds.
type PathGuard struct {
	mu    sync.Mutex
	paths map[string]bool
}

// NewPathGuard creates a new PathGuard.
func NewPathGuard() *PathGuard {
	return &PathGuard{paths: make(map[string]bool)}
}

// TryClaim attempts to claim a destination path. Returns true if the path
// was successfully claimed (first caller wins), false if already taken.
func (g *PathGuard) TryClaim(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paths[path] {
		return false
	}
	g.paths[path] = true
	return true
}

// Release gives up a claim so a later attempt can take the path again.
func (g *PathGuard) Release(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.paths, path)
}

// ProcessFilesConcurrently fans out file processing across N workers.
// The processedCount pointer is atomically incremented after each file
// completes (success or failure), enabling external progress reporting.
// Results are returned in no guaranteed order.
func ProcessFilesConcurrently(
	ctx context.Context,
	files []FileInfo,
	fn ProcessFunc,
	workers int,
	processedCount *int64,
) []ProcessResult {
	if workers <= 0 {
		workers = 1
	}
	if processedCount == nil {
		processedCount = new(int64)
	}

	jobs := make(chan FileInfo, len(files))
	results := make(chan ProcessResult, len(files))

	var wg sync.WaitGroup

	// Start worker goroutines
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				// Check for cancellation before processing
				if ctx.Err() != nil {
					results <- ProcessResult{File: file, Err: ctx.Err()}
					atomic.AddInt64(processedCount, 1)
					continue
				}

				source, finalPath, err := fn(ctx, file)
				results <- ProcessResult{
					File:           file,
					MetadataSource: source,
					FinalPath:      finalPath,
					Err:            err,
				}
				atomic.AddInt64(processedCount, 1)
			}
		}()
	}

	// Feed jobs
	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	// Wait for all workers then close results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	var out []ProcessResult
	for r := range results {
		out = append(out, r)
	}
	return out
}
