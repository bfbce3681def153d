// Package modules checks a set of module interchange files in dependency
// order.
package modules

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/vellum/internal/analyzer"
	"github.com/funvibe/vellum/internal/cache"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/modfile"
	"github.com/funvibe/vellum/internal/pipeline"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

// Loader checks modules against each other and against the interfaces held
// in Store. Config is required; Store may be nil.
type Loader struct {
	Config *config.Config
	Store  *cache.Store
	Logger *zap.Logger
}

func NewLoader(cfg *config.Config, store *cache.Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Config: cfg, Store: store, Logger: logger}
}

// IsModuleFile reports whether path has an interchange file extension.
func IsModuleFile(path string) bool {
	for _, ext := range config.ModuleFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// CheckAll decodes and checks files. Modules are checked layer by layer,
// each layer concurrently; a checked module is published to the modules
// after it and to the cache. The first failure stops the check and is
// returned as a *ModuleError unless it concerns the set as a whole.
func (l *Loader) CheckAll(ctx context.Context, files []string) ([]*Result, error) {
	mods, err := l.decodeAll(files)
	if err != nil {
		return nil, err
	}
	order, err := layers(mods)
	if err != nil {
		return nil, err
	}

	importable := make(map[string]*symbols.TypeInfo)
	if l.Store != nil {
		cached, err := l.Store.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		for name, info := range cached {
			if _, rechecked := mods[name]; !rechecked {
				importable[name] = info
			}
		}
	}

	ids := typesystem.NewIDGen()
	var results []*Result
	for depth, layer := range order {
		l.Logger.Debug("checking layer", zap.Int("depth", depth), zap.Int("modules", len(layer)))
		layerResults, err := l.checkLayer(ctx, layer, ids, importable)
		if err != nil {
			return nil, err
		}
		for _, r := range layerResults {
			importable[r.Typed.Name] = r.Typed.TypeInfo
			if err := l.publish(ctx, r); err != nil {
				return nil, err
			}
		}
		results = append(results, layerResults...)
	}
	return results, nil
}

func (l *Loader) decodeAll(files []string) (map[string]*Module, error) {
	mods := make(map[string]*Module, len(files))
	decode := pipeline.New(&modfile.DecodeProcessor{})
	for _, path := range files {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading module %s", path)
		}
		pctx := pipeline.NewContext(path, source)
		pctx.Logger = l.Logger
		pctx = decode.Run(pctx)
		if pctx.Failed() {
			return nil, &ModuleError{Path: path, Source: source, Err: pctx.Errors[0]}
		}

		m := newModule(path, source, pctx.Module)
		if prev, dup := mods[m.Name]; dup {
			return nil, &DuplicateModuleError{Name: m.Name, Paths: [2]string{prev.Path, path}}
		}
		mods[m.Name] = m
	}
	return mods, nil
}

// checkLayer checks modules that do not import each other. importable is
// only read while the layer runs.
func (l *Loader) checkLayer(ctx context.Context, layer []*Module, ids *typesystem.IDGen, importable map[string]*symbols.TypeInfo) ([]*Result, error) {
	results := make([]*Result, len(layer))
	check := pipeline.New(&analyzer.SemanticAnalyzerProcessor{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs())
	for i, m := range layer {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pctx := pipeline.NewContext(m.Path, m.Source)
			pctx.Module = m.AST
			pctx.IDs = ids
			pctx.Importable = importable
			pctx.Package = l.Config.Package
			pctx.Tracing = l.Config.Tracing
			pctx.Logger = l.Logger.With(zap.String("module", m.Name))

			pctx = check.Run(pctx)
			if pctx.Failed() {
				return &ModuleError{Path: m.Path, Source: m.Source, Err: pctx.Errors[0]}
			}
			results[i] = &Result{
				Path:     m.Path,
				Source:   m.Source,
				Typed:    &analyzer.TypedModule{Name: m.Name, Kind: m.AST.Kind, Definitions: pctx.Definitions, TypeInfo: pctx.TypeInfo},
				Warnings: pctx.Warnings,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Loader) publish(ctx context.Context, r *Result) error {
	if l.Store != nil {
		entry, err := l.Store.Put(ctx, r.Typed.TypeInfo)
		if err != nil {
			return err
		}
		r.BuildID = entry.BuildID
	}
	l.Logger.Info("module checked",
		zap.String("module", r.Typed.Name),
		zap.Int("warnings", len(r.Warnings)),
		zap.String("build_id", r.BuildID))
	return nil
}

func (l *Loader) jobs() int {
	if l.Config.Jobs < 1 {
		return config.DefaultJobs
	}
	return l.Config.Jobs
}

// ModuleFiles lists the interchange files under dir, sorted.
func ModuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsModuleFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
