// Package siglog is a thin logging shim over the standard library's
// log package, adapted from the teacher's internal/debug: a package
// level writer that the CLI and watch daemon can redirect or silence,
// kept entirely out of the scanner/classifier hot path.
package siglog

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "sigscan: ", log.LstdFlags)
	quiet  bool
)

// SetOutput redirects where log lines are written. Pass io.Discard to
// silence output entirely without flipping Quiet.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetQuiet suppresses Infof/Warnf output (Errorf is never suppressed).
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

func logf(level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return
	}
	logger.Printf(level+" "+format, args...)
}

// Infof logs an informational line.
func Infof(format string, args ...any) {
	logf("INFO", format, args)
}

// Warnf logs a warning line.
func Warnf(format string, args ...any) {
	logf("WARN", format, args)
}

// Errorf logs an error line. Errorf is never suppressed by Quiet, since
// errors are the reason a caller of the CLI would be watching output at
// all.
func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("ERROR "+format, args...)
}
