package http

import (
	"bytes"
	"net/http"

	"finassist/internal/aggregate"
	"finassist/internal/assistant"
	"finassist/internal/core"
	"finassist/internal/log"
)

type indexView struct {
	Form       core.FormState
	Editing    bool
	Error      string
	Today      string
	Categories []core.Category
	Currency   string

	Expenses   []core.Expense
	Total      core.Money
	ByCategory []barView
	ByMonth    []barView

	Messages  []assistant.Message
	Questions []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	form := core.FormState{Date: s.today()}
	if id := sanitizeInput(r.URL.Query().Get("edit")); id != "" {
		if e, err := s.deps.Store.Get(id); err == nil {
			form = core.FormStateFrom(e)
		}
	}
	s.renderIndex(w, r, http.StatusOK, form, "")
}

// renderIndex renders the single page with form prefilled and an optional
// blocking notice.
func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, form core.FormState, notice string) {
	ctx := r.Context()
	sum, list := s.summary(ctx)

	view := indexView{
		Form:       form,
		Editing:    form.EditingID != "",
		Error:      notice,
		Today:      s.today(),
		Categories: core.Categories(),
		Currency:   s.deps.Assistant.Currency(),
		Expenses:   list,
		Total:      sum.Total,
		ByCategory: categoryBars(sum.ByCategory),
		ByMonth:    monthBars(sum.ByMonth),
		Messages:   s.deps.Transcript.Messages(),
		Questions:  assistant.MenuQuestions,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", view); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template render failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type summaryResponse struct {
	aggregate.Summary
	MonthlyIncome core.Money `json:"monthlyIncome"`
	Savings       core.Money `json:"savings"`
	Currency      string     `json:"currency"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, list := s.summary(r.Context())
	income := s.deps.Assistant.MonthlyIncome()
	if sum.ByCategory == nil {
		sum.ByCategory = []core.CategoryAmount{}
	}
	if sum.ByMonth == nil {
		sum.ByMonth = []core.MonthAmount{}
	}
	newJSON(summaryResponse{
		Summary:       sum,
		MonthlyIncome: income,
		Savings:       aggregate.Savings(income, list),
		Currency:      s.deps.Assistant.Currency(),
	}).Write(w, r)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	newJSON(map[string][]core.Category{"categories": core.Categories()}).Write(w, r)
}

func (s *Server) today() string {
	return core.DateOf(s.deps.Now()).String()
}
