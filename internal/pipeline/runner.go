// Package pipeline chains the surveillance stages over a FileSystem:
// preprocessing a raw export, clustering it, characterising the clusters and
// optimising the alert-index weights. Every stage reads the previous stage's
// table and writes its own.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jsangelo/index-based-alert-system/internal/alertindex"
	"github.com/jsangelo/index-based-alert-system/internal/characterize"
	"github.com/jsangelo/index-based-alert-system/internal/clustering"
	"github.com/jsangelo/index-based-alert-system/internal/config"
	"github.com/jsangelo/index-based-alert-system/internal/features"
	"github.com/jsangelo/index-based-alert-system/internal/fsutil"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
	"github.com/jsangelo/index-based-alert-system/internal/pairwise"
	"github.com/jsangelo/index-based-alert-system/internal/security"
)

// PreprocessSuffix is appended to the input stem of a preprocessed table.
const PreprocessSuffix = "_filtrado"

// Runner executes pipeline stages. Input paths are used as given; outputs
// are written under the configured output directory.
type Runner struct {
	FS     fsutil.FileSystem
	Config *config.Config
	RunID  string
}

// NewRunner returns a Runner with a fresh run ID.
func NewRunner(fsys fsutil.FileSystem, cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &Runner{FS: fsys, Config: cfg, RunID: uuid.NewString()}
}

// Outputs lists the files a full run wrote, in stage order.
type Outputs struct {
	Preprocessed  string
	Clusters      string
	Features      string
	Optimization  string
	Matrices      []string
	ScaledTables  []string
	Frontier      *alertindex.Frontier
	ClusterCounts [2]int
}

// Run executes every stage on a raw export.
func (r *Runner) Run(ctx context.Context, rawPath string) (*Outputs, error) {
	out := &Outputs{}
	var err error
	if out.Preprocessed, err = r.Preprocess(ctx, rawPath); err != nil {
		return nil, err
	}
	var assignment *clustering.Assignment
	if out.Clusters, assignment, err = r.Cluster(ctx, out.Preprocessed); err != nil {
		return nil, err
	}
	out.ClusterCounts = [2]int{assignment.Count1(), assignment.Count2()}
	limits := r.Config.Limits()
	for _, stem := range []string{pairwise.SpatialFileStem, pairwise.TemporalFileStem, pairwise.CombinedFileStem} {
		out.Matrices = append(out.Matrices, filepath.Join(r.Config.GetOutputDir(), pairwise.FileName(stem, limits)))
	}
	if out.Features, out.ScaledTables, err = r.Characterize(ctx, out.Clusters); err != nil {
		return nil, err
	}
	if out.Optimization, out.Frontier, err = r.Optimize(ctx, out.Features); err != nil {
		return nil, err
	}
	return out, nil
}

// Preprocess filters a raw semicolon-separated Latin-1 export and writes
// <stem>_filtrado.csv.
func (r *Runner) Preprocess(ctx context.Context, rawPath string) (string, error) {
	defer monitoring.Stage(r.RunID, "preprocess")()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := r.FS.Open(rawPath)
	if err != nil {
		return "", fmt.Errorf("failed to open raw export: %w", err)
	}
	defer f.Close()

	raw, err := observation.ReadRawExport(f)
	if err != nil {
		return "", err
	}
	filtered, err := observation.Preprocess(raw)
	if err != nil {
		return "", err
	}
	return r.write(stem(rawPath)+PreprocessSuffix+".csv", filtered.WriteCSV)
}

// Cluster builds the pairwise matrices of an observation table, writes them,
// then writes the table annotated with Cluster1 and Cluster2.
func (r *Runner) Cluster(ctx context.Context, path string) (string, *clustering.Assignment, error) {
	defer monitoring.Stage(r.RunID, "cluster")()

	table, err := r.readTable(path)
	if err != nil {
		return "", nil, err
	}
	obs, err := observation.FromTable(table)
	if err != nil {
		return "", nil, err
	}
	metric, err := r.Config.GetMetric()
	if err != nil {
		return "", nil, err
	}
	limits := r.Config.Limits()
	builder := &pairwise.Builder{
		Limits:  limits,
		Metric:  metric,
		Workers: r.Config.GetWorkers(),
		Prune:   r.Config.GetPrune(),
	}
	result, err := builder.Build(ctx, obs)
	if err != nil {
		return "", nil, err
	}
	monitoring.Logf("run=%s pairwise: n=%d max_distance_km=%g max_time_days=%g",
		r.RunID, len(obs), result.MaxDistanceKm, result.MaxTimeDays)

	outDir, err := r.outputDir()
	if err != nil {
		return "", nil, err
	}
	if err := pairwise.WriteMatrices(r.FS, outDir, limits, result); err != nil {
		return "", nil, err
	}

	assignment, err := clustering.Assign(result.Combined, r.Config.GetDBSCANEps())
	if err != nil {
		return "", nil, err
	}
	if err := assignment.Annotate(table); err != nil {
		return "", nil, err
	}
	name, err := r.write(clustering.OutputFileStem+"_"+limits.Suffix()+".csv", table.WriteCSV)
	if err != nil {
		return "", nil, err
	}
	return name, assignment, nil
}

// Characterize aggregates a clustered table into the feature table
// <stem>_caracterizados.csv, plus its z-score and min-max scaled copies.
func (r *Runner) Characterize(ctx context.Context, path string) (string, []string, error) {
	defer monitoring.Stage(r.RunID, "characterize")()
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	table, err := r.readTable(path)
	if err != nil {
		return "", nil, err
	}
	metric, err := r.Config.GetMetric()
	if err != nil {
		return "", nil, err
	}
	vectors, err := (&characterize.Characterizer{Metric: metric}).FromTable(table)
	if err != nil {
		return "", nil, err
	}
	featureTable := features.ToTable(vectors)

	base := stem(path) + characterize.OutputSuffix
	name, err := r.write(base+".csv", featureTable.WriteCSV)
	if err != nil {
		return "", nil, err
	}

	var scaledNames []string
	for _, method := range []features.Method{features.ZScore, features.MinMax} {
		scaled, err := features.ScaleTable(featureTable, method)
		if err != nil {
			return "", nil, err
		}
		scaledName, err := r.write(base+method.OutputSuffix()+".csv", scaled.WriteCSV)
		if err != nil {
			return "", nil, err
		}
		scaledNames = append(scaledNames, scaledName)
	}
	return name, scaledNames, nil
}

// Optimize sweeps the alert-index weights over a feature table and writes
// optimization_<limits>.csv.
func (r *Runner) Optimize(ctx context.Context, path string) (string, *alertindex.Frontier, error) {
	defer monitoring.Stage(r.RunID, "optimize")()

	table, err := r.readTable(path)
	if err != nil {
		return "", nil, err
	}
	method, err := r.Config.GetScaling()
	if err != nil {
		return "", nil, err
	}
	prepared, err := alertindex.Prepare(table, method)
	if err != nil {
		return "", nil, err
	}
	obj, err := alertindex.NewObjectives(prepared)
	if err != nil {
		return "", nil, err
	}
	solver, err := r.Config.NewSolver()
	if err != nil {
		return "", nil, err
	}
	alphas, err := r.Config.GetAlphas()
	if err != nil {
		return "", nil, err
	}

	frontier, err := (&alertindex.Optimizer{
		Solver:  solver,
		Alphas:  alphas,
		Workers: r.Config.GetWorkers(),
	}).Run(ctx, obj)
	if err != nil {
		return "", nil, err
	}

	name, err := r.write(alertindex.OutputFileStem+"_"+r.Config.Limits().Suffix()+".csv", frontier.WriteCSV)
	if err != nil {
		return "", nil, err
	}
	return name, frontier, nil
}

func (r *Runner) readTable(path string) (*observation.Table, error) {
	f, err := r.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return observation.ReadTable(f, ',')
}

func (r *Runner) outputDir() (string, error) {
	dir := r.Config.GetOutputDir()
	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return dir, nil
}

func (r *Runner) write(name string, fn func(w io.Writer) error) (string, error) {
	dir, err := r.outputDir()
	if err != nil {
		return "", err
	}
	p, err := security.OutputPath(dir, name)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteWith(r.FS, p, fn); err != nil {
		return "", err
	}
	monitoring.Debugf("run=%s wrote %s", r.RunID, p)
	return p, nil
}

// stem returns the sanitised base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return security.SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}
