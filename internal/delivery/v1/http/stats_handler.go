package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

type StatsHandler struct {
	statsUsecase usecase.StatsUC
	logger       logger.Logger
}

func NewStatsHandler(statsUsecase usecase.StatsUC, logger logger.Logger) *StatsHandler {
	return &StatsHandler{statsUsecase: statsUsecase, logger: logger}
}

// getStats
//
//	@Summary		Статистика продаж
//	@Description	Учитываются только завершённые продажи. Даты включительные
//	@Tags			stats
//	@Produce		json
//	@Param			date_from	query		string	false	"Начальная дата YYYY-MM-DD"
//	@Param			date_to		query		string	false	"Конечная дата YYYY-MM-DD"
//	@Param			limit		query		int		false	"Размер топов"
//	@Success		200			{object}	StatsResponse
//	@Failure		403			{object}	ErrorResponse
//	@Router			/stats [get]
func (h *StatsHandler) getStats(w http.ResponseWriter, r *http.Request) {
	req := &usecase.StatsReq{Actor: mustActor(r)}

	var err error
	if req.DateFrom, err = parseDateQuery(r, "date_from"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.DateTo, err = parseDateQuery(r, "date_to"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.Limit, err = parseIntQuery(r, "limit"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	report, err := h.statsUsecase.GetStats(r.Context(), req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newStatsResponse(report))
}

// getSummary
//
//	@Summary	Сводка за сегодня
//	@Tags		stats
//	@Produce	json
//	@Success	200	{object}	SummaryResponse
//	@Failure	403	{object}	ErrorResponse
//	@Router		/stats/summary [get]
func (h *StatsHandler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.statsUsecase.GetSummary(r.Context(), mustActor(r))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSummaryResponse(summary))
}

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
}

// health
//
//	@Summary	Проверка доступности сервиса и БД
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func health(db Pinger, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warnf("health check failed: %v", err)
			WriteSuccess(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}

		WriteSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
