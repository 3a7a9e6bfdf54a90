package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rx/internal/config"
	"github.com/standardbeagle/rx/internal/debug"
	"github.com/standardbeagle/rx/internal/security"
)

// Version is set at build time via -ldflags; empty means a dev build.
var Version string

func main() {
	app := &cli.App{
		Name:    "rx",
		Usage:   "large-file regex search and log analysis",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "directory rx is allowed to read from (overrides config search roots)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				os.Setenv("DEBUG", "1")
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			searchCmd(),
			indexCmd(),
			compressCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rx: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigAndSandbox loads config.Load(".") and builds a Sandbox scoped
// either to the --root override or the config's search roots.
func loadConfigAndSandbox(c *cli.Context) (*config.Config, *security.Sandbox, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	roots := cfg.SearchRoots
	if root := c.String("root"); root != "" {
		roots = []string{root}
	}

	sandbox, err := security.New(roots)
	if err != nil {
		return nil, nil, fmt.Errorf("build sandbox: %w", err)
	}
	return cfg, sandbox, nil
}
