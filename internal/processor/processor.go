// Package processor runs the evaluate and persist pipeline for stored
// signals, one signal at a time or as a concurrent batch.
package processor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/signal-tracker/internal/evaluator"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/notify"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency is the number of signals a batch evaluates at once.
const DefaultConcurrency = 4

// Store is what the pipeline reads signals from and writes results to.
type Store interface {
	store.CandleStore
	store.SignalStore
}

// SignalProcessor is implemented by Processor.
type SignalProcessor interface {
	ProcessSignal(ctx context.Context, id int64) (types.Outcome, error)
	ProcessOpenSignals(ctx context.Context, limit int, onProgress ProgressFunc) (BatchReport, error)
}

// ProgressFunc is called after each signal of a batch with the number of
// signals done so far.
type ProgressFunc func(done, total int)

// Config controls the pipeline.
type Config struct {
	Evaluator   evaluator.Config
	Concurrency int
}

// DefaultConfig returns the evaluator defaults and DefaultConcurrency.
func DefaultConfig() Config {
	return Config{
		Evaluator:   evaluator.DefaultConfig(),
		Concurrency: DefaultConcurrency,
	}
}

// SignalError records one failed signal of a batch.
type SignalError struct {
	SignalID int64  `json:"signal_id"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
}

// BatchReport summarizes a ProcessOpenSignals run.
type BatchReport struct {
	RunID      uuid.UUID     `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Closed     int           `json:"closed"`
	StillOpen  int           `json:"still_open"`
	Cached     int           `json:"cached"`
	Failed     int           `json:"failed"`
	Errors     []SignalError `json:"errors,omitempty"`
}

// Processor loads a signal, evaluates it, saves the candles it read and
// records the outcome once the signal closed.
type Processor struct {
	store    Store
	source   provider.CandleSource
	notifier notify.Notifier
	cfg      Config
	logger   *logger.Logger
	inflight singleflight.Group
}

var _ SignalProcessor = (*Processor)(nil)

// New creates a processor. A nil notifier disables notifications.
func New(st Store, source provider.CandleSource, notifier notify.Notifier, cfg Config, log *logger.Logger) *Processor {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	//nolint:exhaustruct // singleflight group is ready to use
	return &Processor{
		store:    st,
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		logger:   log.Named("processor"),
	}
}

// ProcessSignal evaluates one signal. Concurrent calls for the same id share
// a single evaluation, so a signal never has two writers.
//
// When the evaluation fails the candles read so far are still saved and the
// error is returned; a stored outcome is never shown in place of a failed
// evaluation.
func (p *Processor) ProcessSignal(ctx context.Context, id int64) (types.Outcome, error) {
	v, err, shared := p.inflight.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return p.process(ctx, id)
	})

	if shared {
		p.logger.Debug("Joined running evaluation", zap.Int64("signal_id", id))
	}

	outcome, _ := v.(types.Outcome)

	return outcome, err
}

func (p *Processor) process(ctx context.Context, id int64) (types.Outcome, error) {
	sig, err := p.store.GetSignal(ctx, id)
	if err != nil {
		return types.Outcome{SignalID: id}, err
	}

	outcome, evalErr := evaluator.Evaluate(ctx, sig, p.source, p.cfg.Evaluator)

	if len(outcome.Candles) > 0 {
		// fetched candles are kept even when the caller gave up
		err := p.store.SaveCandles(context.WithoutCancel(ctx), outcome.Candles, p.cfg.Evaluator.Interval)
		if err != nil {
			p.logger.Error("Failed to save candles", zap.Int64("signal_id", id), zap.Error(err))

			if evalErr == nil {
				return outcome, err
			}
		}
	}

	if evalErr != nil {
		p.logger.Warn("Evaluation failed",
			zap.Int64("signal_id", id),
			zap.Int("candles", len(outcome.Candles)),
			zap.Error(evalErr))

		return outcome, evalErr
	}

	if outcome.Cached || !outcome.IsClosed() {
		p.logger.Debug("Signal not closed by this run",
			zap.Int64("signal_id", id),
			zap.String("status", string(outcome.Status())),
			zap.Int("candles", len(outcome.Candles)))

		return outcome, nil
	}

	err = p.store.CloseSignal(ctx, id, outcome.CloseTime.Unwrap(), outcome.Result.Unwrap(), outcome.PnL.Unwrap())
	if err != nil {
		return outcome, err
	}

	p.logger.Info("Signal closed",
		zap.Int64("signal_id", id),
		zap.String("symbol", sig.Symbol),
		zap.String("result", string(outcome.Result.Unwrap())),
		zap.Float64("pnl", outcome.PnL.Unwrap()),
		zap.Time("close_time", outcome.CloseTime.Unwrap()))

	if err := p.notifier.SignalClosed(ctx, sig, outcome); err != nil {
		p.logger.Warn("Failed to send notification", zap.Int64("signal_id", id), zap.Error(err))
	}

	return outcome, nil
}

// ProcessOpenSignals evaluates up to limit open signals, Concurrency at a
// time. A failing signal is counted in the report and does not stop the
// batch; only a failure to list the signals or a cancelled ctx is returned.
func (p *Processor) ProcessOpenSignals(ctx context.Context, limit int, onProgress ProgressFunc) (BatchReport, error) {
	report := BatchReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	signals, err := p.store.ListOpenSignals(ctx, limit)
	if err != nil {
		return report, err
	}

	report.Total = len(signals)

	log := p.logger.With(zap.String("run_id", report.RunID.String()))
	log.Info("Processing open signals", zap.Int("total", report.Total), zap.Int("concurrency", p.cfg.Concurrency))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, sig := range signals {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			outcome, err := p.ProcessSignal(gctx, sig.ID)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				report.Failed++
				report.Errors = append(report.Errors, SignalError{
					SignalID: sig.ID,
					Code:     int(errors.GetCode(err)),
					Message:  err.Error(),
				})
			case outcome.Cached:
				report.Cached++
			case outcome.IsClosed():
				report.Closed++
			default:
				report.StillOpen++
			}

			done++
			if onProgress != nil {
				onProgress(done, report.Total)
			}

			return nil
		})
	}

	_ = g.Wait()
	report.FinishedAt = time.Now()

	log.Info("Finished processing open signals",
		zap.Int("closed", report.Closed),
		zap.Int("still_open", report.StillOpen),
		zap.Int("cached", report.Cached),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if err := ctx.Err(); err != nil {
		return report, errors.Wrap(errors.ErrCodeEvaluationFailed, "batch cancelled", err)
	}

	return report, nil
}
