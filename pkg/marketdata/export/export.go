package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/writer"
)

// OnProgress receives the fraction of the window covered so far.
type OnProgress = func(current float64, total float64, message string)

// Params holds the parameters for an export request.
type Params struct {
	Symbol   string              `validate:"required"`
	Interval marketdata.Interval `validate:"required"`
	Start    time.Time           `validate:"required"`
	End      time.Time           `validate:"required,gtfield=Start"`
	DataPath string              `validate:"required"`
}

// Exporter downloads a window of candles and writes it to a Parquet file.
type Exporter struct {
	source     provider.CandleSource
	validate   *validator.Validate
	onProgress OnProgress
}

// NewExporter creates an exporter reading from source.
func NewExporter(source provider.CandleSource, onProgress OnProgress) *Exporter {
	if onProgress == nil {
		onProgress = func(float64, float64, string) {}
	}

	return &Exporter{
		source:     source,
		validate:   validator.New(),
		onProgress: onProgress,
	}
}

// OutputFileName names the export SYMBOL_START_END_INTERVAL.parquet.
func OutputFileName(params Params) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Symbol,
		params.Start.UTC().Format("2006-01-02"),
		params.End.UTC().Format("2006-01-02"),
		params.Interval)
}

// Export writes every bar of the window and returns the output path. Nothing
// is left on disk when the download fails.
func (e *Exporter) Export(ctx context.Context, params Params) (path string, err error) {
	if err := e.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid export parameters", err)
	}

	if !params.Interval.Valid() {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", params.Interval)
	}

	if err := os.MkdirAll(params.DataPath, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data path", err)
	}

	outputPath := filepath.Join(params.DataPath, OutputFileName(params))

	parquetWriter := writer.NewParquetWriter(outputPath, params.Interval)
	if err := parquetWriter.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if cerr := parquetWriter.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", cerr)
		}
	}()

	req := provider.FetchRequest{
		Symbol:   params.Symbol,
		Interval: params.Interval,
		Start:    params.Start,
		End:      optional.Some(params.End),
	}

	total := params.End.Sub(params.Start).Seconds()

	for page, pageErr := range e.source.Pages(ctx, req) {
		if pageErr != nil {
			return "", pageErr
		}

		for _, candle := range page {
			if err := parquetWriter.Write(candle); err != nil {
				return "", err
			}
		}

		last := page[len(page)-1].Time
		e.onProgress(last.Sub(params.Start).Seconds(), total, fmt.Sprintf("Exporting %s %s candles", params.Symbol, params.Interval))
	}

	return parquetWriter.Finalize()
}
