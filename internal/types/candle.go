package types

import "time"

// Candle is one OHLCV bar. Time is the bar open time in UTC.
type Candle struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}
