package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pov-engine/internal/inventory"
	"github.com/sells-group/pov-engine/internal/model"
)

var (
	batchDir         string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate model versions for every input file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		files, err := collectInputFiles(batchDir)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentRuns
		}

		return processBatch(ctx, files, concurrency, func(ctx context.Context, path string) (*model.ModelBundle, error) {
			in, err := inventory.Load(path)
			if err != nil {
				return nil, err
			}
			return e.Manager.Generate(ctx, in)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of input files")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent runs (default from config)")
	batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

func collectInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read dir %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".xlsx":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, eris.Errorf("batch: no input files in %s", dir)
	}
	return files, nil
}

// generateFunc is the callback signature for generating one model from an
// input file.
type generateFunc func(ctx context.Context, path string) (*model.ModelBundle, error)

// processBatch generates models concurrently. Individual failures are logged
// and counted but do not abort the batch; scopes are independent. Different
// input files must target different scopes — the version manager serializes
// nothing across files.
func processBatch(ctx context.Context, files []string, concurrency int, generate generateFunc) error {
	zap.L().Info("batch: processing inputs",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", path))

			bundle, err := generate(gctx, path)
			if err != nil {
				failed.Add(1)
				log.Error("batch: generation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("batch: generation complete",
				zap.String("model_id", bundle.Model.ID),
				zap.Int("version", bundle.Model.Version),
				zap.Float64("confidence", bundle.Model.ConfidenceScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch: complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if failed.Load() > 0 {
		return eris.Errorf("batch: %d of %d inputs failed", failed.Load(), len(files))
	}
	return nil
}
