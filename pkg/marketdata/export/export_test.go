package export

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type ExporterTestSuite struct {
	suite.Suite
	start time.Time
}

func TestExporterSuite(t *testing.T) {
	suite.Run(t, new(ExporterTestSuite))
}

func (suite *ExporterTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *ExporterTestSuite) source(fail bool) provider.CandleSource {
	page := provider.PageSourceFunc(func(_ context.Context, req provider.PageRequest) ([]types.Candle, error) {
		if fail {
			return nil, stderrors.New("exchange unavailable")
		}

		var candles []types.Candle
		for t := req.Start; !t.After(req.End) && len(candles) < req.Limit; t = t.Add(time.Hour) {
			candles = append(candles, types.Candle{Time: t, Symbol: req.Symbol, Open: 1, High: 2, Low: 0.5, Close: 1.5})
		}

		return candles, nil
	})

	return provider.NewPaginator(page, provider.WithPageSize(10), provider.WithRetryPolicy(provider.RetryPolicy{MaxAttempts: 1}))
}

func (suite *ExporterTestSuite) params(dir string) Params {
	return Params{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneHour,
		Start:    suite.start,
		End:      suite.start.Add(24 * time.Hour),
		DataPath: dir,
	}
}

func (suite *ExporterTestSuite) TestOutputFileName() {
	suite.Equal("BTCUSDT_2024-01-01_2024-01-02_1h.parquet", OutputFileName(suite.params("")))
}

func (suite *ExporterTestSuite) TestExport() {
	dir := filepath.Join(suite.T().TempDir(), "nested")

	var progress []float64
	exporter := NewExporter(suite.source(false), func(current, total float64, _ string) {
		progress = append(progress, current/total)
	})

	path, err := exporter.Export(context.Background(), suite.params(dir))
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(dir, "BTCUSDT_2024-01-01_2024-01-02_1h.parquet"), path)
	suite.FileExists(path)

	// 25 hourly bars in pages of 10
	suite.Equal([]float64{9.0 / 24, 19.0 / 24, 1}, progress)
}

func (suite *ExporterTestSuite) TestExportInvalidParams() {
	exporter := NewExporter(suite.source(false), nil)

	params := suite.params(suite.T().TempDir())
	params.End = params.Start.Add(-time.Hour)
	_, err := exporter.Export(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = suite.params(suite.T().TempDir())
	params.Interval = "1M"
	_, err = exporter.Export(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

func (suite *ExporterTestSuite) TestExportFailureLeavesNoFile() {
	dir := suite.T().TempDir()
	exporter := NewExporter(suite.source(true), nil)

	_, err := exporter.Export(context.Background(), suite.params(dir))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.NoFileExists(filepath.Join(dir, OutputFileName(suite.params(dir))))
}
