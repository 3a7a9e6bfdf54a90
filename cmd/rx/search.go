package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rx/internal/rxtypes"
	"github.com/standardbeagle/rx/internal/scan"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "search one or more files for a pattern",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "pattern", Aliases: []string{"e"}, Usage: "pattern to search for (repeatable)"},
			&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"i"}},
			&cli.BoolFlag{Name: "fixed-strings", Aliases: []string{"F"}},
			&cli.IntFlag{Name: "max-results", Usage: "0 means unlimited"},
			&cli.BoolFlag{Name: "no-cache"},
			&cli.BoolFlag{Name: "no-index"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	patterns := c.StringSlice("pattern")
	paths := c.Args().Slice()
	if len(patterns) == 0 {
		if c.NArg() < 2 {
			return errors.New("usage: rx search -e <pattern> <path...>, or rx search <pattern> <path...>")
		}
		patterns = []string{c.Args().First()}
		paths = c.Args().Tail()
	}
	if len(paths) == 0 {
		return errors.New("usage: rx search -e <pattern> <path...>")
	}

	cfg, sandbox, err := loadConfigAndSandbox(c)
	if err != nil {
		return err
	}

	driver := scan.NewDriver(sandbox, cfg)

	req := scan.Request{
		Paths:      paths,
		Patterns:   patterns,
		Flags:      rxtypes.MatchingFlags{IgnoreCase: c.Bool("ignore-case"), FixedStrings: c.Bool("fixed-strings")},
		MaxResults: c.Int("max-results"),
		UseIndex:   !c.Bool("no-index"),
		UseCache:   !c.Bool("no-cache"),
	}

	start := time.Now()
	result, err := driver.Search(context.Background(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(start)

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, m := range result.Matches {
		line := m.LineNumberAbsolute
		if line < 0 {
			line = m.LineNumberRelative
		}
		path := result.Files[m.FileID]
		for _, cl := range m.ContextLines {
			if cl.LineNumberRelative >= m.LineNumberRelative {
				continue
			}
			clLine := cl.LineNumberAbsolute
			if clLine < 0 {
				clLine = cl.LineNumberRelative
			}
			fmt.Printf("%s-%d- %s\n", path, clLine, cl.LineText)
		}
		fmt.Printf("%s:%d: %s\n", path, line, m.LineText)
		for _, cl := range m.ContextLines {
			if cl.LineNumberRelative < m.LineNumberRelative {
				continue
			}
			clLine := cl.LineNumberAbsolute
			if clLine < 0 {
				clLine = cl.LineNumberRelative
			}
			fmt.Printf("%s-%d- %s\n", path, clLine, cl.LineText)
		}
	}
	for _, s := range result.SkippedFiles {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Path, s.Reason)
	}

	fmt.Fprintf(os.Stderr, "%d matches across %d files in %v (%s scanned)\n",
		len(result.Matches), len(result.ScannedFiles), elapsed.Round(time.Millisecond),
		humanize.Bytes(uint64(totalBytesScanned(result.ScannedFiles))))

	return nil
}

func totalBytesScanned(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
