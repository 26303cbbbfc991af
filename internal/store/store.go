// Package store holds the expense collection and keeps it persisted as a
// single JSON blob.
//
// Every mutation is written through to the blob store before it returns. If
// the write fails the in-memory change is undone, so the collection and the
// blob never diverge.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"finassist/internal/blob"
	"finassist/internal/core"
	"finassist/internal/log"
)

// DefaultKey is the blob key the collection is stored under.
const DefaultKey = "finassist_expenses"

// Operations reported to Options.OnChange.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Options struct {
	Key    string
	Now    func() time.Time
	Logger *log.Logger
	// OnChange is called after every committed mutation with the new size of
	// the collection.
	OnChange func(op string, count int)
}

type ExpenseStore struct {
	mu       sync.RWMutex
	blobs    blob.Store
	key      string
	now      func() time.Time
	logger   *log.Logger
	onChange func(string, int)

	items    []core.Expense // insertion order
	revision uint64
	lastID   int64
}

// Open restores the collection from blobs. A missing, unreadable or
// malformed blob yields an empty collection and is only logged.
func Open(ctx context.Context, blobs blob.Store, opts Options) (*ExpenseStore, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	s := &ExpenseStore{
		blobs:    blobs,
		key:      opts.Key,
		now:      opts.Now,
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.FromContext(ctx)
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)

	s.items = s.load(ctx)
	for _, e := range s.items {
		if n, err := strconv.ParseInt(e.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	s.logger.InfoContext(ctx, "Expense store opened",
		log.FieldBlobKey, s.key,
		log.FieldCount, len(s.items))
	return s, nil
}

func (s *ExpenseStore) load(ctx context.Context) []core.Expense {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Cannot read stored expenses, starting empty",
			log.FieldBlobKey, s.key, log.FieldError, err)
		return nil
	}

	var stored []core.Expense
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.WarnContext(ctx, "Stored expenses are malformed, starting empty",
			log.FieldBlobKey, s.key, log.FieldError, err)
		return nil
	}

	seen := make(map[string]struct{}, len(stored))
	items := make([]core.Expense, 0, len(stored))
	for _, e := range stored {
		if e.ID == "" {
			s.logger.WarnContext(ctx, "Skipping stored expense without id")
			continue
		}
		if err := e.Amount.Validate(); err != nil {
			s.logger.WarnContext(ctx, "Skipping stored expense with invalid amount",
				log.FieldExpenseID, e.ID, log.FieldError, err)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			s.logger.WarnContext(ctx, "Skipping duplicate stored expense", log.FieldExpenseID, e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		items = append(items, e)
	}
	return items
}

// persist writes the current collection. Callers hold the write lock.
func (s *ExpenseStore) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []core.Expense{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}
	return nil
}

// commit bumps the revision and notifies the observer. Callers hold the write lock.
func (s *ExpenseStore) commit(op string) {
	s.revision++
	if s.onChange != nil {
		s.onChange(op, len(s.items))
	}
}

// nextID returns the creation time in Unix milliseconds, moved forward when
// that value is already taken.
func (s *ExpenseStore) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for s.indexOf(strconv.FormatInt(id, 10)) >= 0 {
		id++
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *ExpenseStore) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
}

func (s *ExpenseStore) validate(fields core.ExpenseFields) (core.ExpenseFields, error) {
	fields = fields.Normalize()
	if err := fields.Validate(s.now()); err != nil {
		return core.ExpenseFields{}, err
	}
	return fields, nil
}

// Add validates fields, assigns an id and stores the new expense.
func (s *ExpenseStore) Add(ctx context.Context, fields core.ExpenseFields) (core.Expense, error) {
	fields, err := s.validate(fields)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevLastID := s.lastID
	e := core.Expense{ID: s.nextID(), ExpenseFields: fields}
	s.items = append(s.items, e)
	if err := s.persist(ctx); err != nil {
		s.items = s.items[:len(s.items)-1]
		s.lastID = prevLastID
		s.logger.LogError(ctx, "Failed to add expense", err, log.OpCreate, nil)
		return core.Expense{}, err
	}
	s.commit(OpAdd)

	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithExpense(e.ID, e.Amount.String(), e.Category.String(), e.Date.String()).
		ToSlice()...)
	return e, nil
}

// Update replaces the fields of the expense with the given id.
func (s *ExpenseStore) Update(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, error) {
	fields, err := s.validate(fields)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	prev := s.items[i]
	e := core.Expense{ID: id, ExpenseFields: fields}
	s.items[i] = e
	if err := s.persist(ctx); err != nil {
		s.items[i] = prev
		s.logger.LogError(ctx, "Failed to update expense", err, log.OpUpdate, nil)
		return core.Expense{}, err
	}
	s.commit(OpUpdate)

	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithExpense(e.ID, e.Amount.String(), e.Category.String(), e.Date.String()).
		ToSlice()...)
	return e, nil
}

// Delete removes the expense with the given id. Unknown ids are ignored.
func (s *ExpenseStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	prev := s.items
	s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	if err := s.persist(ctx); err != nil {
		s.items = prev
		s.logger.LogError(ctx, "Failed to delete expense", err, log.OpDelete, nil)
		return err
	}
	s.commit(OpDelete)

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	return nil
}

// Apply executes a validated form command.
func (s *ExpenseStore) Apply(ctx context.Context, cmd core.Command) (core.Expense, error) {
	switch c := cmd.(type) {
	case core.AddExpense:
		return s.Add(ctx, c.Fields)
	case core.UpdateExpense:
		return s.Update(ctx, c.ID, c.Fields)
	default:
		return core.Expense{}, fmt.Errorf("unsupported command %T", cmd)
	}
}

// List returns a copy of the collection, most recent date first. Expenses
// on the same date keep their insertion order.
func (s *ExpenseStore) List() []core.Expense {
	s.mu.RLock()
	out := slices.Clone(s.items)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}

func (s *ExpenseStore) Get(id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return s.items[i], nil
}

func (s *ExpenseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision increases with every committed mutation.
func (s *ExpenseStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Close releases the store. Every committed mutation is already persisted,
// so nothing is written here: a blob that could not be loaded at Open stays
// as it was until the first mutation replaces it.
func (s *ExpenseStore) Close(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.InfoContext(ctx, "Expense store closed",
		log.FieldCount, len(s.items),
		log.FieldRevision, s.revision)
	return nil
}
