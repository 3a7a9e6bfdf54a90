package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rx/internal/seekzstd"
)

func compressCmd() *cli.Command {
	return &cli.Command{
		Name:  "compress",
		Usage: "convert a plain file into a seekable zstd container (.rxz)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "frame-size", Usage: "target frame size in bytes, 0 means the default"},
			&cli.BoolFlag{Name: "checksums", Usage: "record a per-frame xxhash64 checksum in the seek table"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output path, defaults to <input>.rxz"},
		},
		Action: compressAction,
	}
}

func compressAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: rx compress <path>")
	}

	_, sandbox, err := loadConfigAndSandbox(c)
	if err != nil {
		return err
	}

	path, err := sandbox.Validate(c.Args().First())
	if err != nil {
		return err
	}

	out := c.String("output")
	if out == "" {
		out = path + ".rxz"
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer dst.Close()

	w, err := seekzstd.NewWriter(dst, seekzstd.WriterOptions{
		FrameSizeBytes: c.Int("frame-size"),
		Checksums:      c.Bool("checksums"),
	})
	if err != nil {
		return fmt.Errorf("build writer: %w", err)
	}

	if err := w.WriteAll(in); err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	outInfo, err := dst.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", out, err)
	}

	ratio := "n/a"
	if info.Size() > 0 {
		ratio = fmt.Sprintf("%.1f%%", 100*float64(outInfo.Size())/float64(info.Size()))
	}
	fmt.Printf("%s -> %s: %s -> %s (%s of original, %d frames)\n",
		path, out,
		humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(outInfo.Size())),
		ratio, len(w.Frames()))

	return nil
}
