package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fundament-io/fundament/internal/refdata"
	"github.com/fundament-io/fundament/internal/series"
	"github.com/fundament-io/fundament/internal/store"
	"github.com/fundament-io/fundament/pkg/polygon"
	"github.com/rotisserie/eris"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps domain sentinels onto HTTP statuses: missing data is 404,
// data that exists but cannot answer the query is 422, upstream market data
// failures are 502.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, store.ErrSeriesNotFound),
		eris.Is(err, refdata.ErrUnknownTicker),
		eris.Is(err, refdata.ErrNoSnapshotAvailable),
		eris.Is(err, series.ErrNoFilingAvailable):
		status = http.StatusNotFound
	case eris.Is(err, series.ErrMetricNotFound),
		eris.Is(err, series.ErrAmbiguousFiling),
		eris.Is(err, refdata.ErrNoTableForYear),
		eris.Is(err, refdata.ErrIndustryLabelMismatch):
		status = http.StatusUnprocessableEntity
	case eris.Is(err, polygon.ErrMarketDataUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseDate reads the optional date query parameter, defaulting to today.
func parseDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "bad date %q", raw)
	}
	return d, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "metric is required"})
		return
	}
	asOf, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	quarterly := r.URL.Query().Get("quarterly") == "true"

	st, err := s.service.Load(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	value, err := st.Metric(metric, asOf, quarterly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"metric": metric,
		"date":   asOf.Format("2006-01-02"),
		"value":  value,
	})
}

func (s *Server) handleWACC(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	asOf, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st, err := s.service.Load(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	wacc, err := st.CostOfCapital(asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":          ticker,
		"date":            asOf.Format("2006-01-02"),
		"cost_of_capital": wacc,
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	members, err := s.service.IndexMembers(asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":    asOf.Format("2006-01-02"),
		"count":   len(members),
		"members": members,
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	asOf, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st, err := s.service.Load(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	price, err := st.Price(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"date":   asOf.Format("2006-01-02"),
		"price":  price,
	})
}

func (s *Server) handleRSI(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	asOf, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st, err := s.service.Load(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	rsi, err := st.RSI(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"date":   asOf.Format("2006-01-02"),
		"rsi":    rsi,
	})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.service.Tickers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(tickers),
		"tickers": tickers,
	})
}
