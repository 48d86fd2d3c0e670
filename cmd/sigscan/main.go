package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/sigscan"
	"github.com/standardbeagle/sigscan/internal/batch"
	"github.com/standardbeagle/sigscan/internal/sigconfig"
	"github.com/standardbeagle/sigscan/internal/siglog"
	"github.com/standardbeagle/sigscan/internal/version"
	"github.com/standardbeagle/sigscan/internal/watch"
	"github.com/standardbeagle/sigscan/pattern"
)

func main() {
	app := &cli.App{
		Name:                   "sigscan",
		Usage:                  "byte-signature file format classifier",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			classifyCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		siglog.Errorf("%v", err)
		os.Exit(1)
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "classify one or more files against a specification catalog",
		ArgsUsage: "PATH...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "specification catalog (KDL)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "head-tail",
				Usage: "scan only the head and tail of large files",
			},
			&cli.BoolFlag{
				Name:  "suggest",
				Usage: "suggest a near-miss specification when nothing matches",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "number of files to classify concurrently",
				Value: 4,
			},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("classify requires at least one PATH argument", 1)
			}

			classifier, err := buildClassifier(c.String("config"), c.Bool("head-tail"), c.Bool("suggest"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			results := batch.Run(c.Context, classifier, paths, c.Int("concurrency"))

			failed := false
			for _, path := range paths {
				r := results[path]
				printResult(os.Stdout, r)
				if r.Err != nil {
					failed = true
				}
			}
			if failed {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "classify files under a directory as they change",
		ArgsUsage: "ROOT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "specification catalog (KDL)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "only watch files matching glob patterns",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "skip files matching glob patterns",
			},
		},
		Action: func(c *cli.Context) error {
			root := c.Args().First()
			if root == "" {
				return cli.Exit("watch requires a ROOT argument", 1)
			}

			classifier, err := buildClassifier(c.String("config"), false, false)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			w, err := watch.New(classifier, root, c.StringSlice("include"), c.StringSlice("exclude"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				for ev := range w.Events() {
					printWatchEvent(os.Stdout, ev)
				}
			}()

			siglog.Infof("watching %s", root)
			return w.Run(ctx)
		},
	}
}

func buildClassifier(configPath string, headTail, suggest bool) (*sigscan.Classifier, error) {
	store, err := sigconfig.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mode := sigscan.FullScan
	if headTail {
		mode = sigscan.HeadTailScan
	}

	classifier, err := sigscan.New(store, pattern.OffsetModePositiveOnly, mode)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	return classifier.WithFuzzyHint(suggest), nil
}

func printResult(w *os.File, r batch.PathResult) {
	fmt.Fprintf(w, "File: %s\n", r.Path)
	if r.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", r.Err)
		return
	}
	printClassifications(w, r.Result)
}

func printWatchEvent(w *os.File, ev watch.Event) {
	if ev.Err != nil {
		fmt.Fprintf(w, "File: %s\nError: %v\n", ev.Path, ev.Err)
		return
	}
	if ev.Removed {
		fmt.Fprintf(w, "File: %s\nRemoved.\n", ev.Path)
		return
	}
	fmt.Fprintf(w, "File: %s\n", ev.Path)
	printClassifications(w, ev.Result)
}

func printClassifications(w *os.File, result sigscan.Result) {
	if len(result.Classifications) == 0 {
		fmt.Fprintln(w, "No classifications found.")
		for _, hint := range result.Hints {
			fmt.Fprintf(w, "    maybe: %s (score %.2f)\n", hint.Identifier, hint.Score)
		}
		return
	}
	fmt.Fprintln(w, "Classifications:")
	for _, cl := range result.Classifications {
		fmt.Fprintf(w, "    format: %s\n", cl.Identifier)
	}
}
