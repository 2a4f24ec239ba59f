package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNewWithInvalidLevel() {
	_, err := New(Config{Level: "loud"})
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestNewWritesRotatedFile() {
	path := filepath.Join(suite.T().TempDir(), "logs", "signal-tracker.json")

	logger, err := New(Config{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	suite.Require().NoError(err)

	logger.Named("evaluator").Info("signal closed", zap.Int64("signal_id", 42))
	logger.Debug("filtered out")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), `"signal_id":42`)
	suite.Contains(string(data), `"component":"evaluator"`)
	suite.NotContains(string(data), "filtered out")
}

func (suite *LoggerTestSuite) TestNewNop() {
	logger := NewNop()
	suite.NotPanics(func() {
		logger.Info("dropped")
	})
}
