// Package catalog loads the TREE tables of an OMGAUDIO folder.
//
// Each axis table is read, fingerprinted and decoded concurrently. Any
// structural error aborts the load; index consistency findings are kept
// on the affected Tree so the rest of the catalog stays usable.
//
//	cat, err := catalog.Open(ctx, "/media/player/OMGAUDIO")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, tree := range cat.Inconsistent() {
//	    fmt.Println(tree.Axis, tree.Findings)
//	}
package catalog

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

// Digest is the BLAKE3-256 hash of a table file.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Tree is one decoded 01TREExx table.
type Tree struct {
	Table *oma.Table
	// Findings holds the joined index_inconsistency errors, or nil.
	Findings error
	Path     string
	Size     int64
	Digest   Digest
	Axis     oma.Axis
}

// Consistent reports whether the index check passed or was skipped.
func (t *Tree) Consistent() bool {
	return t.Findings == nil
}

// Catalog holds the trees found in one folder.
type Catalog struct {
	trees map[oma.Axis]*Tree
	// Axes lists the loaded axes in load order.
	Axes []oma.Axis
}

// Tree returns the tree for axis.
func (c *Catalog) Tree(axis oma.Axis) (*Tree, bool) {
	t, ok := c.trees[axis]
	return t, ok
}

// Trees returns the loaded trees in load order.
func (c *Catalog) Trees() []*Tree {
	out := make([]*Tree, 0, len(c.Axes))
	for _, a := range c.Axes {
		out = append(out, c.trees[a])
	}
	return out
}

// Inconsistent returns the trees with index findings.
func (c *Catalog) Inconsistent() []*Tree {
	var out []*Tree
	for _, t := range c.Trees() {
		if !t.Consistent() {
			out = append(out, t)
		}
	}
	return out
}

// Option configures Open and OpenFS.
type Option func(*options)

type options struct {
	axes        []oma.Axis
	check       []oma.CheckOption
	decode      []oma.DecodeOption
	concurrency int
	require     bool
	skipCheck   bool
}

// WithAxes selects the axes to load. The default is oma.Axes.
func WithAxes(axes ...oma.Axis) Option {
	return func(o *options) {
		o.axes = axes
	}
}

// WithConcurrency bounds the number of tables decoded at once.
// Zero or less means one goroutine per axis.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// Require makes a missing table file fail the load with not_found
// instead of being skipped.
func Require() Option {
	return func(o *options) {
		o.require = true
	}
}

// AllowUnknownClasses decodes unsupported classes as raw payloads.
func AllowUnknownClasses() Option {
	return func(o *options) {
		o.decode = append(o.decode, oma.AllowUnknownClasses())
	}
}

// WithCheckOptions passes opts to the index check of every tree.
func WithCheckOptions(opts ...oma.CheckOption) Option {
	return func(o *options) {
		o.check = append(o.check, opts...)
	}
}

// SkipCheck disables the index check.
func SkipCheck() Option {
	return func(o *options) {
		o.skipCheck = true
	}
}

// Open loads the catalog stored in directory dir.
func Open(ctx context.Context, dir string, opts ...Option) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "catalog folder "+dir)
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput(errors.PhaseLoad, dir+" is not a directory")
	}
	return OpenFS(ctx, os.DirFS(dir), opts...)
}

// OpenFS loads the catalog stored at the root of fsys.
func OpenFS(ctx context.Context, fsys fs.FS, opts ...Option) (*Catalog, error) {
	o := options{axes: oma.Axes}
	for _, opt := range opts {
		opt(&o)
	}

	trees := make([]*Tree, len(o.axes))
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i, axis := range o.axes {
		i, axis := i, axis
		g.Go(func() error {
			t, err := loadTree(gctx, fsys, axis, &o)
			if err != nil {
				return err
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Catalog{trees: make(map[oma.Axis]*Tree, len(trees))}
	for _, t := range trees {
		if t == nil {
			continue
		}
		if _, dup := c.trees[t.Axis]; dup {
			continue
		}
		c.trees[t.Axis] = t
		c.Axes = append(c.Axes, t.Axis)
	}
	return c, nil
}

// loadTree returns a nil tree without error for a skipped missing file.
func loadTree(ctx context.Context, fsys fs.FS, axis oma.Axis, o *options) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := axis.FileName()
	data, err := fs.ReadFile(fsys, name)
	if stderrors.Is(err, fs.ErrNotExist) {
		if o.require {
			return nil, errors.NotFound(errors.PhaseLoad, "table", name)
		}
		Logger().Warn("table missing, skipping axis",
			zap.Stringer("axis", axis),
			zap.String("path", name))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "read "+name)
	}

	t := &Tree{
		Axis:   axis,
		Path:   name,
		Size:   int64(len(data)),
		Digest: blake3.Sum256(data),
	}

	t.Table, err = oma.ParseTable(data, o.decode...)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, e.WithPath(name)
		}
		return nil, err
	}

	Logger().Debug("loaded table",
		zap.Stringer("axis", axis),
		zap.String("path", name),
		zap.Int64("bytes", t.Size),
		zap.Stringer("digest", t.Digest))

	if o.skipCheck {
		return t, nil
	}
	t.Findings = oma.CheckTable(t.Table, axis, o.check...)
	if findings := errors.Flatten(t.Findings); len(findings) > 0 {
		Logger().Warn("index inconsistent",
			zap.Stringer("axis", axis),
			zap.String("path", name),
			zap.Int("findings", len(findings)),
			zap.Error(findings[0]))
	}
	return t, nil
}
