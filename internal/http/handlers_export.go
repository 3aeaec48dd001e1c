package http

import (
	"net/http"

	"tally/internal/csvio"
	applog "tally/internal/log"
	"tally/internal/services"
)

// handleExport streams the filtered ledger as a CSV attachment. The export
// path uses the raised result cap.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	rows, err := s.ledger.List(r.Context(), f, services.ExportListLimit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export list failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	if err := csvio.Export(w, rows); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.ErrorContext(r.Context(), "CSV export failed mid-stream", applog.FieldError, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Export served",
		applog.FieldOperation, applog.OpExport, "rows", len(rows))
	if s.collector != nil {
		s.collector.ExportServed()
	}
}
