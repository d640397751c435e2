package handler

import "net/http"

// ShowStats godoc
// @Summary Catalog statistics
// @Description Counts books by status and by publisher.
// @Tags books
// @Produce json
// @Success 200 {object} data.Stats
// @Failure 500
// @Router /estatisticas [get]
func (h *Handler) showStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	env := envelope{
		"total":        stats.Total,
		"available":    stats.Available,
		"loaned":       stats.Loaned,
		"by_publisher": stats.ByPublisher,
	}
	if err := h.encodeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
