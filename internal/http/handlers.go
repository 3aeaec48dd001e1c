package http

import (
	"errors"
	"net/http"
	"strings"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

// handleIndex renders the transaction table with the add and filter forms.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		writeErrorPage(w, http.StatusInternalServerError, "templates not loaded")
		return
	}

	f := filterFromQuery(r.URL.Query())
	rows, err := s.ledger.List(r.Context(), f, services.DefaultListLimit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	data := struct {
		Today    string
		DBName   string
		Msg      string
		From     string
		To       string
		Category string
		Rows     []core.Transaction
	}{
		Today:    todayISO(),
		DBName:   s.dbName,
		Msg:      sanitizeInput(r.URL.Query().Get("msg")),
		From:     f.StartDate,
		To:       f.EndDate,
		Category: f.Category,
		Rows:     rows,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to render page")
	}
}

// handleAdd creates a transaction from the submitted form.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", applog.FieldError, err)
		writeErrorPage(w, http.StatusBadRequest, "Malformed request")
		return
	}

	in := inputFromForm(r)
	id, err := s.ledger.Add(r.Context(), in)
	switch {
	case errors.Is(err, core.ErrValidation):
		writeErrorPage(w, http.StatusUnprocessableEntity, "Error adding transaction: "+err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Add transaction failed", applog.FieldError, err,
			applog.FieldDate, in.Date, applog.FieldAmount, in.Amount, applog.FieldType, in.Type)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction added",
		applog.FieldOperation, applog.OpCreate, applog.FieldTransactionID, id)
	if s.collector != nil {
		s.collector.TransactionCreated()
	}
	s.invalidateSummaries()
	redirectWithMessage(w, r, "/", "Transaction added.")
}

// handleEditForm renders the edit form prefilled with the stored record. The
// amount is shown as its absolute value, matching the add form's convention
// that the type dropdown owns the sign.
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorPage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := s.ledger.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		redirectWithMessage(w, r, "/", "Transaction not found.")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Load transaction failed", applog.FieldError, err, applog.FieldTransactionID, id)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to load transaction")
		return
	}

	data := struct {
		Tx        core.Transaction
		AbsAmount string
		DBName    string
	}{
		Tx:        tx,
		AbsAmount: tx.Amount.Abs().StringFixed(2),
		DBName:    s.dbName,
	}

	if err := s.templates.ExecuteTemplate(w, "edit.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Edit template execution failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to render page")
	}
}

// handleEditSubmit applies the submitted changes to an existing transaction.
func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorPage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeErrorPage(w, http.StatusBadRequest, "Malformed request")
		return
	}

	in := inputFromForm(r)
	err = s.ledger.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, core.ErrValidation):
		writeErrorPage(w, http.StatusUnprocessableEntity, "Error updating: "+err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		redirectWithMessage(w, r, "/", "Transaction not found.")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Update transaction failed", applog.FieldError, err, applog.FieldTransactionID, id)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldTransactionID, id)
	if s.collector != nil {
		s.collector.TransactionUpdated()
	}
	s.invalidateSummaries()
	redirectWithMessage(w, r, "/", "Transaction updated.")
}

// handleDelete removes a transaction. Deleting an id that is already gone
// still redirects with the success message; the operation is idempotent.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorPage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Delete transaction failed", applog.FieldError, err, applog.FieldTransactionID, id)
		writeErrorPage(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldTransactionID, id)
	if s.collector != nil {
		s.collector.TransactionDeleted()
	}
	s.invalidateSummaries()
	redirectWithMessage(w, r, "/", "Deleted.")
}

// inputFromForm maps the add/edit form fields onto a service input. The date
// defaults to today and the type to expense, as the original form did.
func inputFromForm(r *http.Request) services.Input {
	date := strings.TrimSpace(r.Form.Get("date"))
	if date == "" {
		date = todayISO()
	}
	typ := strings.TrimSpace(r.Form.Get("type"))
	if typ == "" {
		typ = string(core.Expense)
	}
	return services.Input{
		Date:     date,
		Amount:   strings.TrimSpace(r.Form.Get("amount")),
		Type:     typ,
		Category: sanitizeInput(r.Form.Get("category")),
		Tags:     sanitizeInput(r.Form.Get("tags")),
		Notes:    sanitizeInput(r.Form.Get("notes")),
	}
}
