package mocks

//go:generate mockgen -destination=./mock_candle_source.go -package=mocks github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider CandleSource
//go:generate mockgen -destination=./mock_store.go -package=mocks github.com/rxtech-lab/signal-tracker/internal/store Store
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/signal-tracker/internal/notify Notifier
//go:generate mockgen -destination=./mock_signal_processor.go -package=mocks github.com/rxtech-lab/signal-tracker/internal/processor SignalProcessor
