// omadump decodes and checks the catalog tables of an OMGAUDIO folder.
//
// Without file arguments it loads every axis tree under --root (or the
// root named in the config file). With file arguments it decodes each
// file on its own, checking the index when the name identifies a TREE
// axis such as 01TREE02.DAT.
//
// Exit status is 1 on structural errors and 2 when index findings exist.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/omgaudio/omadb/catalog"
	"github.com/omgaudio/omadb/config"
	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

// exitError carries a process exit status.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

var errFindings = &exitError{err: fmt.Errorf("index findings reported"), code: 2}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err == nil {
		return
	}
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		if err != errFindings {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(coder.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

type flags struct {
	config      string
	root        string
	format      string
	logLevel    string
	axes        []string
	catalogSize int
	concurrency int
	check       bool
	allow       bool
	require     bool
	interactive bool
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var f flags
	fs := pflag.NewFlagSet("omadump", pflag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "path to the YAML config file (default: $"+config.EnvVar+")")
	fs.StringVar(&f.root, "root", "", "OMGAUDIO folder to load")
	fs.StringSliceVar(&f.axes, "axis", nil, "axes to load: upload, artist, album, genre, artist-album or file ids")
	fs.StringVarP(&f.format, "format", "f", "", "output format: "+strings.Join(config.Formats, ", "))
	fs.BoolVar(&f.check, "check", true, "check GPLB/TPLB index consistency")
	fs.BoolVar(&f.allow, "allow-unknown", false, "keep unsupported classes as raw payloads")
	fs.BoolVar(&f.require, "require", false, "fail when an axis table is missing")
	fs.IntVar(&f.catalogSize, "catalog-size", 0, "number of tracks in the master catalog")
	fs.IntVar(&f.concurrency, "concurrency", 0, "tables decoded in parallel (0: one per axis)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "browse the catalog in a terminal UI")
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(fs)
			return nil
		}
		return err
	}

	cfg, err := loadConfig(fs, &f)
	if err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	oma.SetLogger(logger)
	catalog.SetLogger(logger)

	if f.interactive {
		if cfg.Root == "" {
			return errors.InvalidInput(errors.PhaseConfig, "interactive mode needs --root or root in the config file")
		}
		return runInteractive(ctx, cfg)
	}

	var docs []tableDoc
	var findings bool
	if files := fs.Args(); len(files) > 0 {
		docs, findings, err = dumpFiles(files, cfg, logger)
	} else {
		docs, findings, err = dumpCatalog(ctx, cfg)
	}
	if err != nil {
		return err
	}

	if err := render(out, cfg.Format, docs, isTerminal(out) && cfg.Format == config.FormatText); err != nil {
		return err
	}
	if findings {
		return errFindings
	}
	return nil
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(fs *pflag.FlagSet, f *flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.config != "" {
		cfg, err = config.LoadFile(f.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if fs.Changed("root") {
		cfg.Root = f.root
	}
	if fs.Changed("axis") {
		cfg.Axes = cfg.Axes[:0]
		for _, name := range f.axes {
			a, err := oma.ParseAxis(name)
			if err != nil {
				return nil, err
			}
			cfg.Axes = append(cfg.Axes, a)
		}
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("check") {
		cfg.Check = f.check
	}
	if fs.Changed("allow-unknown") {
		cfg.AllowUnknownClasses = f.allow
	}
	if fs.Changed("require") {
		cfg.Require = f.require
	}
	if fs.Changed("catalog-size") {
		cfg.CatalogSize = f.catalogSize
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func dumpCatalog(ctx context.Context, cfg *config.Config) ([]tableDoc, bool, error) {
	if cfg.Root == "" {
		return nil, false, errors.InvalidInput(errors.PhaseConfig, "no table files given and no root configured")
	}
	cat, err := catalog.Open(ctx, cfg.Root, cfg.CatalogOptions()...)
	if err != nil {
		return nil, false, err
	}
	docs := make([]tableDoc, 0, len(cat.Axes))
	for _, t := range cat.Trees() {
		docs = append(docs, treeDoc(t, cfg.Check))
	}
	return docs, len(cat.Inconsistent()) > 0, nil
}

func dumpFiles(files []string, cfg *config.Config, logger *zap.Logger) ([]tableDoc, bool, error) {
	var (
		docs     []tableDoc
		findings bool
	)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read "+path)
		}
		t, err := oma.ParseTable(data, cfg.DecodeOptions()...)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				return nil, false, e.WithPath(filepath.Base(path))
			}
			return nil, false, err
		}

		var check error
		axis, ok := axisFromFileName(path)
		checked := ok && cfg.Check && t.Name == oma.TagTREE && axis != oma.AxisUnused
		if checked {
			check = oma.CheckTable(t, axis, cfg.CheckOptions()...)
			findings = findings || check != nil
		} else if cfg.Check {
			logger.Debug("index check skipped", zap.String("path", path))
		}

		doc := newTableDoc(path, int64(len(data)), blake3.Sum256(data), t, check)
		doc.Checked = checked
		if ok {
			doc.Axis = axis.String()
		}
		docs = append(docs, doc)
	}
	return docs, findings, nil
}

// axisFromFileName recognizes 01TREExx.DAT names.
func axisFromFileName(path string) (oma.Axis, bool) {
	base := strings.ToUpper(filepath.Base(path))
	if len(base) != len("01TREE01.DAT") || !strings.HasPrefix(base, "01TREE") || !strings.HasSuffix(base, ".DAT") {
		return 0, false
	}
	a, err := oma.ParseAxis(base[6:8])
	if err != nil {
		return 0, false
	}
	return a, true
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printHelp(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `omadump decodes OMGAUDIO catalog tables.

Usage:
  omadump [flags]                 load the trees under --root
  omadump [flags] FILE...         decode single table files
  omadump -i --root DIR           browse the trees interactively

Exit status is 1 on structural errors and 2 when index findings exist.

Flags:
`)
	fs.SetOutput(os.Stderr)
	fs.PrintDefaults()
}
