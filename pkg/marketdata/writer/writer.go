package writer

import (
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

// CandleWriter exports candle series to a destination outside the store.
type CandleWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write stages a single candle. Repeated bars are written once.
	Write(candle types.Candle) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
