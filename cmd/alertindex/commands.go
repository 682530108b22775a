package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsangelo/index-based-alert-system/internal/alertindex"
	"github.com/jsangelo/index-based-alert-system/internal/clustering"
	"github.com/jsangelo/index-based-alert-system/internal/config"
	"github.com/jsangelo/index-based-alert-system/internal/fsutil"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/pipeline"
	"github.com/jsangelo/index-based-alert-system/internal/version"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "alertindex",
		Short:         "Spatiotemporal outbreak clustering and alert-index weighting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.SetVerbose(opts.verbose)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "JSON or YAML configuration file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-solution and per-file detail")
	pf.Float64("distance-limit-km", 1, "Largest distance (km) at which two records can be related")
	pf.Int("time-limit-days", 30, "Largest interval (days) at which two records can be related")
	pf.Float64("dbscan-eps", clustering.DefaultEps, "DBSCAN neighbourhood radius over the combined matrix")
	pf.String("alphas", "0:1:0.1", `Scalarisation weights, "min:max:step" or a comma-separated list`)
	pf.String("scaling", "zscore", "Feature scaling: zscore or minmax")
	pf.String("solver", alertindex.SolverProjectedGradient, "Weight solver: projected-gradient or softmax-lbfgs")
	pf.Float64("ftol", alertindex.DefaultFtol, "Objective change below which a solve has converged")
	pf.Int("max-iterations", alertindex.DefaultMaxIterations, "Iteration limit per solve")
	pf.Int("workers", 0, "Parallel workers (default: number of CPUs)")
	pf.Bool("prune", false, "Skip geodesics between records in distant latitude bands")
	pf.String("geodesic", "karney", "Distance method: karney or haversine")
	pf.String("data-dir", ".", "Directory relative input paths are resolved against")
	pf.String("output-dir", ".", "Directory outputs are written to")

	root.AddCommand(
		stageCommand(opts, "preprocess RAW_EXPORT", "Filter a raw export to precise GPS records", runPreprocess),
		stageCommand(opts, "cluster OBSERVATIONS", "Build pairwise matrices and assign clusters", runCluster),
		stageCommand(opts, "characterize CLUSTERS", "Aggregate clustered records into cluster features", runCharacterize),
		stageCommand(opts, "optimize FEATURES", "Sweep alert-index weightings over cluster features", runOptimize),
		stageCommand(opts, "run RAW_EXPORT", "Run every stage on a raw export", runAll),
		versionCommand(),
	)
	return root
}

type stageFunc func(cmd *cobra.Command, r *pipeline.Runner, input string) error

func stageCommand(opts *rootOptions, use, short string, run stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			r := pipeline.NewRunner(fsutil.OSFileSystem{}, cfg)
			monitoring.Logf("run=%s %s %s (limits %s, eps %g, workers %d)",
				r.RunID, cmd.Name(), args[0], cfg.Limits().Suffix(), cfg.GetDBSCANEps(), cfg.GetWorkers())
			return run(cmd, r, cfg.InputPath(args[0]))
		},
	}
}

func runPreprocess(cmd *cobra.Command, r *pipeline.Runner, input string) error {
	out, err := r.Preprocess(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runCluster(cmd *cobra.Command, r *pipeline.Runner, input string) error {
	out, a, err := r.Cluster(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d clusters, %d multi-record clusters\n", out, a.Count1(), a.Count2())
	return nil
}

func runCharacterize(cmd *cobra.Command, r *pipeline.Runner, input string) error {
	out, scaled, err := r.Characterize(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	for _, s := range scaled {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}

func runOptimize(cmd *cobra.Command, r *pipeline.Runner, input string) error {
	out, frontier, err := r.Optimize(cmd.Context(), input)
	if err != nil {
		return err
	}
	printFrontierSummary(cmd, out, frontier)
	return nil
}

func runAll(cmd *cobra.Command, r *pipeline.Runner, input string) error {
	out, err := r.Run(cmd.Context(), input)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Preprocessed)
	for _, m := range out.Matrices {
		fmt.Fprintln(w, m)
	}
	fmt.Fprintf(w, "%s\t%d clusters, %d multi-record clusters\n", out.Clusters, out.ClusterCounts[0], out.ClusterCounts[1])
	fmt.Fprintln(w, out.Features)
	for _, s := range out.ScaledTables {
		fmt.Fprintln(w, s)
	}
	printFrontierSummary(cmd, out.Optimization, out.Frontier)
	return nil
}

func printFrontierSummary(cmd *cobra.Command, path string, f *alertindex.Frontier) {
	failed := 0
	for _, s := range f.Solutions {
		if !s.Success {
			failed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d solutions, %d not converged, f1 bound %g\n",
		path, len(f.Solutions), failed, f.F1Bound)
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
