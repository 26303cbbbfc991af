package http

import (
	"errors"
	"net/http"

	"finassist/internal/core"
	"finassist/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Store.List()
	if list == nil {
		list = []core.Expense{}
	}
	newJSON(map[string]any{"expenses": list, "count": len(list)}).Write(w, r)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	newJSON(e).Write(w, r)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	body, err := parseRequestBody(w, r)
	if err != nil {
		errorJSON(http.StatusBadRequest, "Invalid request body").Write(w, r)
		return
	}
	form := body.formState()
	form.EditingID = ""

	fields, err := form.Fields()
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Store.Add(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logMutation(r, log.OpCreate, e)
	newJSON(e).Status(http.StatusCreated).Header("Location", "/api/expenses/"+e.ID).Write(w, r)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	body, err := parseRequestBody(w, r)
	if err != nil {
		errorJSON(http.StatusBadRequest, "Invalid request body").Write(w, r)
		return
	}
	fields, err := body.formState().Fields()
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Store.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logMutation(r, log.OpUpdate, e)
	newJSON(e).Write(w, r)
}

// handleDeleteExpense answers 404 for unknown ids even though the store
// treats them as a no-op.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := s.deps.Store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.logMutation(r, log.OpDelete, e)
	newJSON(nil).Status(http.StatusNoContent).Write(w, r)
}

// handleSubmitExpense handles the page form. A valid submission adds or
// updates and redirects back; an invalid one re-renders with the input kept.
func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	body, err := parseRequestBody(w, r)
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, core.FormState{Date: s.today()}, "Invalid request")
		return
	}
	form := body.formState()

	cmd, err := form.Submit(s.deps.Now())
	if err != nil {
		s.renderIndex(w, r, http.StatusUnprocessableEntity, form, core.UserMessage(err))
		return
	}

	e, err := s.deps.Store.Apply(r.Context(), cmd)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// Edited expense was deleted meanwhile; the edit is dropped.
		log.FromContext(r.Context()).InfoContext(r.Context(), "Edited expense no longer exists",
			log.FieldExpenseID, form.EditingID)
	case err != nil:
		s.renderIndex(w, r, http.StatusUnprocessableEntity, form, core.UserMessage(err))
		return
	default:
		op := log.OpCreate
		if _, ok := cmd.(core.UpdateExpense); ok {
			op = log.OpUpdate
		}
		s.logMutation(r, op, e)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteExpenseForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logMutation(r *http.Request, op string, e core.Expense) {
	fields := log.NewFields().
		WithOperation(op).
		WithExpense(e.ID, e.Amount.String(), e.Category.String(), e.Date.String())
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense saved", fields.ToSlice()...)
}
