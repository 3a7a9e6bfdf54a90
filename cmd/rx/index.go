package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rx/internal/lineindex"
	"github.com/standardbeagle/rx/internal/rxtypes"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "build or rebuild the line-offset index for a file, optionally with anomaly analysis",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "rebuild even if a valid cache entry exists"},
			&cli.BoolFlag{Name: "analyze", Usage: "also run anomaly detection and prefix extraction (spec.md C8/C9)"},
		},
		Action: indexAction,
	}
}

func indexAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: rx index [--analyze] <path>")
	}

	cfg, sandbox, err := loadConfigAndSandbox(c)
	if err != nil {
		return err
	}

	path, err := sandbox.Validate(c.Args().First())
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	identity := rxtypes.FileIdentity{SizeBytes: info.Size(), ModifiedAt: info.ModTime()}

	cachePath := lineindex.CachePath(cfg.CacheDir, path)
	wantAnalysis := c.Bool("analyze")
	if !c.Bool("force") {
		if cached, err := lineindex.Load(cachePath); err == nil && cached.Valid(identity, wantAnalysis, wantAnalysis) {
			fmt.Printf("%s: cached index already valid (%d lines)\n", path, cached.Stats.LineCount)
			return nil
		}
	}

	step := cfg.LargeFileBytes() / 50
	if step <= 0 {
		step = 1 << 20
	}

	var analysisOpts *lineindex.AnalysisOptions
	if wantAnalysis {
		analysisOpts = &lineindex.AnalysisOptions{
			WindowSize: cfg.Anomaly.WindowSize,
			MaxRanges:  cfg.Anomaly.MaxRanges,
		}
	}

	u, err := lineindex.BuildWithAnalysis(f, identity, path, lineindex.BuildOptions{Step: step, ReservoirSize: cfg.SampleSizeLines}, analysisOpts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := lineindex.Save(cachePath, u); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	fmt.Printf("%s: indexed %d lines (mean length %.1f, stddev %.1f)\n", path, u.Stats.LineCount, u.Stats.Mean, u.Stats.Stddev)
	if wantAnalysis {
		fmt.Printf("%s: %d anomaly ranges across %d detectors\n", path, len(u.Anomalies), len(u.AnomalySummary))
	}
	return nil
}
