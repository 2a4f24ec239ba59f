package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/signal-tracker/internal/marker"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"go.uber.org/zap"
)

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// statusFor maps the outermost error code to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.HasAnyCode(err, errors.ErrCodeSignalNotFound, errors.ErrCodeChannelNotFound, errors.ErrCodeDataNotFound):
		return http.StatusNotFound
	case errors.HasAnyCode(err, errors.ErrCodeInvalidParameter, errors.ErrCodeMissingParameter, errors.ErrCodeMalformedSignal,
		errors.ErrCodeInvalidDirection, errors.ErrCodeInvalidInterval, errors.ErrCodeInvalidOutcome):
		return http.StatusBadRequest
	case errors.HasCode(err, errors.ErrCodeSignalAlreadyClosed):
		return http.StatusConflict
	case errors.HasAnyCode(err, errors.ErrCodeRateLimited, errors.ErrCodeDataSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.HasAnyCode(err, errors.ErrCodeMarketDataFetchFailed, errors.ErrCodeMarketDataParseFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	writeJSON(w, status, errorBody{Error: errorDetail{Code: int(errors.GetCode(err)), Message: err.Error()}})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid id", err)
	}

	return id, nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid limit %q", raw)
	}

	return limit, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if channels == nil {
		channels = []types.Channel{}
	}

	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UpdateChannelRates(r.Context()); err != nil {
		s.writeError(w, r, err)

		return
	}

	s.handleListChannels(w, r)
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	signals, err := s.store.ListSignalsByChannel(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if signals == nil {
		signals = []types.Signal{}
	}

	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleChannelStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	stats, err := s.store.ChannelStats(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	sig, err := s.store.GetSignal(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, sig)
}

type evaluateResponse struct {
	Status  types.OutcomeStatus `json:"status"`
	Outcome types.Outcome       `json:"outcome"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	outcome, err := s.processor.ProcessSignal(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{Status: outcome.Status(), Outcome: outcome})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	interval := s.cfg.Interval
	if raw := r.URL.Query().Get("interval"); raw != "" {
		if interval, err = marketdata.ParseInterval(raw); err != nil {
			s.writeError(w, r, err)

			return
		}
	}

	sig, err := s.store.GetSignal(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	candles, err := s.store.GetCandles(r.Context(), sig.Symbol, interval, sig.SignalTime, s.cfg.Now())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if candles == nil {
		candles = []types.Candle{}
	}

	writeJSON(w, http.StatusOK, marker.NewChart(sig, candles, types.OutcomeFromSignal(sig)))
}
