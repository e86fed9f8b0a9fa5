package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/page-audit/internal/audit"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/store"
)

var (
	batchTargets     string
	batchConcurrency int
	batchSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Audit every page listed in a targets file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := loadTargets(batchTargets)
		if err != nil {
			return err
		}
		for i := range targets {
			targets[i].Inputs = withDefaultInputs(targets[i].Inputs)
		}

		var st store.Store
		if batchSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		a := newAuditor(st, false)
		return processBatch(ctx, targets, concurrency, os.Stdout, a.Run)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchTargets, "targets", "targets.yaml", "YAML file listing pages to audit")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent audits (default from config)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "record each run in the configured store")
	rootCmd.AddCommand(batchCmd)
}

// targetsFile is the batch input format:
//
//	targets:
//	  - url: https://acme.com
//	    expected_phone: "(555) 123-4567"
//	    business_name: Acme Plumbing
type targetsFile struct {
	Targets []model.AuditTarget `yaml:"targets"`
}

func loadTargets(path string) ([]model.AuditTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read targets")
	}
	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrap(err, "batch: parse targets")
	}
	if len(tf.Targets) == 0 {
		return nil, eris.Errorf("batch: no targets in %s", path)
	}
	return tf.Targets, nil
}

// auditFunc runs one audit.
type auditFunc func(ctx context.Context, target model.AuditTarget) (*audit.Outcome, error)

// processBatch audits targets concurrently, writing one JSON report per
// line to out. Individual failures are logged and do not stop the batch.
func processBatch(ctx context.Context, targets []model.AuditTarget, concurrency int, out io.Writer, run auditFunc) error {
	zap.L().Info("processing batch",
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		succeeded, failed atomic.Int64
		mu                sync.Mutex
	)
	enc := json.NewEncoder(out)

	for _, target := range targets {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", target.URL))

			res, err := run(gctx, target)
			if err != nil {
				failed.Add(1)
				log.Error("audit failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			mu.Lock()
			err = enc.Encode(reportOutput{RunID: res.RunID, Report: res.Report})
			mu.Unlock()
			if err != nil {
				return eris.Wrap(err, "batch: write report")
			}

			succeeded.Add(1)
			log.Info("audit complete",
				zap.Int("phones", len(res.Report.Phones)),
				zap.Int("findings", len(res.Report.Findings)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
