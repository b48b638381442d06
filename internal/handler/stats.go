package handler

import (
	"net/http"

	"github.com/aidar/taskflow/internal/service"
)

// StatsHandler обрабатывает эндпоинты статистики
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStats обрабатывает GET /stats (только суммарные значения, без данных пользователей)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetStats(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats.Totals)
}

// GetUserStats обрабатывает GET /stats/me
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetUserStats(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}
