package core

import (
	"strings"
	"time"
)

// FormState is the raw content of the expense form. EditingID is set while
// an existing expense is being edited.
type FormState struct {
	Amount      string
	Category    string
	Date        string
	Description string
	EditingID   string
}

// Command is the validated outcome of a form submission.
type Command interface {
	command()
}

type AddExpense struct {
	Fields ExpenseFields
}

type UpdateExpense struct {
	ID     string
	Fields ExpenseFields
}

func (AddExpense) command()    {}
func (UpdateExpense) command() {}

// FormStateFrom fills a form with an existing expense, ready for editing.
func FormStateFrom(e Expense) FormState {
	return FormState{
		Amount:      e.Amount.String(),
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Description: e.Description,
		EditingID:   e.ID,
	}
}

// Fields parses the raw form values. The result is not validated yet.
func (f FormState) Fields() (ExpenseFields, error) {
	amount, err := ParseMoney(f.Amount)
	if err != nil {
		return ExpenseFields{}, &ValidationError{Field: "amount", Err: err}
	}
	category, err := ParseCategory(f.Category)
	if err != nil {
		return ExpenseFields{}, &ValidationError{Field: "category", Err: err}
	}
	date, err := ParseDate(f.Date)
	if err != nil {
		return ExpenseFields{}, &ValidationError{Field: "date", Err: err}
	}
	return ExpenseFields{
		Amount:      amount,
		Category:    category,
		Date:        date,
		Description: strings.TrimSpace(f.Description),
	}, nil
}

// Submit validates the form and turns it into an AddExpense or UpdateExpense.
func (f FormState) Submit(now time.Time) (Command, error) {
	fields, err := f.Fields()
	if err != nil {
		return nil, err
	}
	if err := fields.Validate(now); err != nil {
		return nil, err
	}
	if id := strings.TrimSpace(f.EditingID); id != "" {
		return UpdateExpense{ID: id, Fields: fields}, nil
	}
	return AddExpense{Fields: fields}, nil
}
