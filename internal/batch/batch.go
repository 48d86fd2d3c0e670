// Package batch runs many independent classifications concurrently
// against one shared, immutable Classifier, using errgroup for bounded
// structured concurrency the same way the teacher's integration tests
// drive concurrent search requests (golang.org/x/sync/errgroup with
// SetLimit).
package batch

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/sigscan"
	"github.com/standardbeagle/sigscan/pkg/xxhashid"
)

// PathResult is one path's outcome: either a Result or Err, not both.
type PathResult struct {
	Path   string
	Result sigscan.Result
	Err    error
}

// resultCache memoizes a Run's classification outcomes by
// sigscan.Result.Fingerprint, so that the many files in a batch which
// share the exact same matched-pattern set (the common case: most
// files in a directory walk are of a handful of recurring formats)
// converge on one canonical Result value instead of each allocating an
// equivalent Classifications slice. Lookups and inserts compare a
// single xxhashid.ID with ==, never the slice itself.
type resultCache struct {
	mu            sync.Mutex
	byFingerprint map[xxhashid.ID]sigscan.Result
}

func newResultCache() *resultCache {
	return &resultCache{byFingerprint: make(map[xxhashid.ID]sigscan.Result)}
}

// canonicalize returns the cached Result sharing result's fingerprint
// if one has already been seen this Run, recording result as the
// canonical value for that fingerprint otherwise. A Result with no
// classifications is returned unchanged: Fingerprint is always zero in
// that case, so there is nothing meaningful to dedupe.
func (c *resultCache) canonicalize(result sigscan.Result) sigscan.Result {
	if len(result.Classifications) == 0 {
		return result
	}

	fp := result.Fingerprint()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.byFingerprint[fp]; ok {
		return cached
	}
	c.byFingerprint[fp] = result
	return result
}

// Run opens and classifies each of paths through classifier, fanning
// out up to concurrency goroutines at once. A per-path I/O or scan
// error is captured in that path's PathResult rather than aborting the
// run -- one bad file must not sink the batch. ctx cancellation stops
// launching new work and causes in-flight classifications' context
// checks to return early.
func Run(ctx context.Context, classifier *sigscan.Classifier, paths []string, concurrency int) map[string]PathResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]PathResult, len(paths))
	cache := newResultCache()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			r := classifyOne(gctx, classifier, path, cache)
			mu.Lock()
			results[path] = r
			mu.Unlock()
			return nil
		})
	}

	// g.Wait's error is always nil here: classifyOne never returns an
	// error to the group, it records one per path instead.
	_ = g.Wait()

	return results
}

func classifyOne(ctx context.Context, classifier *sigscan.Classifier, path string, cache *resultCache) PathResult {
	if err := ctx.Err(); err != nil {
		return PathResult{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return PathResult{Path: path, Err: err}
	}
	defer f.Close()

	result, err := classifier.ClassifyStream(ctx, f)
	if err != nil {
		return PathResult{Path: path, Err: err}
	}
	return PathResult{Path: path, Result: cache.canonicalize(result)}
}
