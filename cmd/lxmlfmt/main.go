// Command lxmlfmt re-indents XML documents. With no file arguments it
// formats stdin to stdout; with arguments it expands ** glob patterns,
// formats every match concurrently, and either prints the results in
// argument order or rewrites the files in place with -w.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/shahin-you/lxml"
	"github.com/shahin-you/lxml/fmtxml"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lxmlfmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	write := fs.Bool("w", false, "write results back to source files instead of stdout")
	indent := fs.String("indent", "", "indent string, overrides the config file")
	configPath := fs.String("config", "", "path to a .lxmlfmt.yaml config file")
	jobs := fs.Int("jobs", runtime.NumCPU(), "number of files formatted concurrently")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lxmlfmt [flags] [pattern ...]\n\n")
		fmt.Fprintf(stderr, "Re-indents XML documents. Patterns may use ** globs.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "lxmlfmt: %v\n", err)
		return 2
	}
	if *indent != "" {
		cfg.Indent = *indent
	}
	p := fmtxml.NewPrinter(cfg)

	if fs.NArg() == 0 {
		if err := p.Format(stdout, stdin); err != nil {
			fmt.Fprintf(stderr, "lxmlfmt: <stdin>: %v\n", err)
			return 1
		}
		return 0
	}

	files, err := expand(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "lxmlfmt: %v\n", err)
		return 2
	}
	if len(files) == 0 {
		fmt.Fprintf(stderr, "lxmlfmt: no files matched\n")
		return 2
	}

	results := make([][]byte, len(files))
	g := new(errgroup.Group)
	g.SetLimit(*jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			out, err := formatFile(p, path)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "lxmlfmt: %v\n", err)
		return 1
	}

	for i, path := range files {
		if *write {
			if err := os.WriteFile(path, results[i], 0o644); err != nil {
				fmt.Fprintf(stderr, "lxmlfmt: %v\n", err)
				return 1
			}
		} else {
			if _, err := stdout.Write(results[i]); err != nil {
				return 1
			}
		}
	}
	return 0
}

// loadConfig reads the explicit config path, or .lxmlfmt.yaml in the current
// directory when present.
func loadConfig(path string) (fmtxml.Config, error) {
	if path != "" {
		return fmtxml.LoadConfig(path)
	}
	cfg, err := fmtxml.LoadConfig(".lxmlfmt.yaml")
	if errors.Is(err, os.ErrNotExist) {
		return fmtxml.DefaultConfig(), nil
	}
	return cfg, err
}

// expand resolves glob patterns to file paths, passing non-pattern arguments
// through untouched so missing files are reported as errors later.
func expand(patterns []string) ([]string, error) {
	var files []string
	for _, pat := range patterns {
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		if matches == nil {
			files = append(files, pat)
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

// formatFile formats one file into memory. Tokenizer diagnostics are
// upgraded with a context excerpt by re-reading the file.
func formatFile(p *fmtxml.Printer, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := p.Format(&buf, f); err != nil {
		var te *fmtxml.TokenizeError
		if errors.As(err, &te) {
			if ctx, err2 := os.Open(path); err2 == nil {
				defer ctx.Close()
				e := lxml.NewError(string(te.Record.Message), ctx, te.Record.Position.ByteOffset)
				return nil, fmt.Errorf("%s: %w", path, e)
			}
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf.Bytes(), nil
}
