package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/blob"
	"finassist/internal/blob/memory"
	"finassist/internal/core"
	"finassist/internal/log"
)

var testNow = time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

func fields(cents int64, cat core.Category, y, m, d int, desc string) core.ExpenseFields {
	return core.ExpenseFields{
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Date:        core.NewDate(y, m, d),
		Description: desc,
	}
}

func openStore(t *testing.T, blobs blob.Store) *ExpenseStore {
	t.Helper()
	s, err := Open(context.Background(), blobs, Options{
		Now:    func() time.Time { return testNow },
		Logger: log.Discard(),
	})
	require.NoError(t, err)
	return s
}

// flakyBlobs fails every Put while failing is set.
type flakyBlobs struct {
	*memory.Store
	mu      sync.Mutex
	failing bool
}

func (f *flakyBlobs) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyBlobs) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, key, value)
}

func TestAddAssignsTimestampIDs(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()

	a, err := s.Add(ctx, fields(1250, core.FoodDining, 2025, 3, 15, "Lunch"))
	require.NoError(t, err)
	b, err := s.Add(ctx, fields(300, core.Transportation, 2025, 3, 14, "Bus"))
	require.NoError(t, err)

	want := testNow.UnixMilli()
	assert.Equal(t, strconv.FormatInt(want, 10), a.ID)
	assert.Equal(t, strconv.FormatInt(want+1, 10), b.ID)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, uint64(2), s.Revision())
}

func TestAddValidates(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()

	tests := []struct {
		name string
		in   core.ExpenseFields
		want error
	}{
		{"zero amount", fields(0, core.Other, 2025, 3, 1, "x"), core.ErrInvalidAmount},
		{"future date", fields(100, core.Other, 2025, 3, 16, "x"), core.ErrFutureDate},
		{"unknown category", fields(100, core.Category("Pets"), 2025, 3, 1, "x"), core.ErrInvalidCategory},
		{"blank description", fields(100, core.Other, 2025, 3, 1, "   "), core.ErrEmptyDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidation(err))
		})
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, uint64(0), s.Revision())
}

func TestAddTrimsDescriptionAndAcceptsToday(t *testing.T) {
	s := openStore(t, memory.New())
	e, err := s.Add(context.Background(), fields(100, core.Other, 2025, 3, 15, "  Coffee  "))
	require.NoError(t, err)
	assert.Equal(t, "Coffee", e.Description)
}

func TestListOrdersByDateDescendingStable(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()
	_, _ = s.Add(ctx, fields(100, core.Other, 2025, 1, 10, "old"))
	_, _ = s.Add(ctx, fields(200, core.Other, 2025, 3, 1, "new-first"))
	_, _ = s.Add(ctx, fields(300, core.Other, 2025, 3, 1, "new-second"))
	_, _ = s.Add(ctx, fields(400, core.Other, 2025, 2, 1, "middle"))

	list := s.List()
	require.Len(t, list, 4)
	got := []string{list[0].Description, list[1].Description, list[2].Description, list[3].Description}
	assert.Equal(t, []string{"new-first", "new-second", "middle", "old"}, got)

	list[0].Description = "mutated"
	assert.NotEqual(t, "mutated", s.List()[0].Description)
}

func TestUpdateReplacesFields(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()
	e, err := s.Add(ctx, fields(100, core.Other, 2025, 3, 1, "before"))
	require.NoError(t, err)

	updated, err := s.Update(ctx, e.ID, fields(999, core.Shopping, 2025, 3, 2, "after"))
	require.NoError(t, err)
	assert.Equal(t, e.ID, updated.ID)

	got, err := s.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(999), got.Amount.Cents)
	assert.Equal(t, core.Shopping, got.Category)
	assert.Equal(t, "after", got.Description)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateMissing(t *testing.T) {
	s := openStore(t, memory.New())
	_, err := s.Update(context.Background(), "nope", fields(100, core.Other, 2025, 3, 1, "x"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, uint64(0), s.Revision())
}

func TestDelete(t *testing.T) {
	blobs := memory.New()
	s := openStore(t, blobs)
	ctx := context.Background()
	a, _ := s.Add(ctx, fields(100, core.Other, 2025, 3, 1, "a"))
	b, _ := s.Add(ctx, fields(200, core.Other, 2025, 3, 1, "b"))

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.Equal(t, 1, s.Len())
	_, err := s.Get(a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Get(b.ID)
	assert.NoError(t, err)

	puts := blobs.Puts()
	rev := s.Revision()
	require.NoError(t, s.Delete(ctx, "missing"))
	assert.Equal(t, puts, blobs.Puts(), "deleting an unknown id must not write")
	assert.Equal(t, rev, s.Revision())
}

func TestPersistenceRoundTrip(t *testing.T) {
	blobs := memory.New()
	s := openStore(t, blobs)
	ctx := context.Background()
	a, _ := s.Add(ctx, fields(1250, core.FoodDining, 2025, 3, 15, "Lunch"))
	_, _ = s.Add(ctx, fields(300, core.Transportation, 2025, 3, 14, "Bus"))

	raw, err := blobs.Get(ctx, DefaultKey)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, a.ID, stored[0]["id"])
	assert.Equal(t, "2025-03-15", stored[0]["date"])

	reopened := openStore(t, blobs)
	assert.Equal(t, s.List(), reopened.List())

	c, err := reopened.Add(ctx, fields(100, core.Other, 2025, 3, 1, "later"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestOpenWithCorruptBlobStartsEmpty(t *testing.T) {
	for name, data := range map[string]string{
		"garbage":   "not json",
		"object":    `{"id":"1"}`,
		"truncated": `[{"id":"1","amount":12.5`,
	} {
		t.Run(name, func(t *testing.T) {
			s := openStore(t, memory.NewSeeded(map[string][]byte{DefaultKey: []byte(data)}))
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestOpenSkipsDuplicateAndBlankIDs(t *testing.T) {
	data := `[
		{"id":"1","amount":1,"category":"Other","date":"2025-01-01","description":"a"},
		{"id":"1","amount":2,"category":"Other","date":"2025-01-02","description":"dup"},
		{"id":"","amount":3,"category":"Other","date":"2025-01-03","description":"blank"}
	]`
	s := openStore(t, memory.NewSeeded(map[string][]byte{DefaultKey: []byte(data)}))
	require.Equal(t, 1, s.Len())
	e, err := s.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "a", e.Description)
}

func TestFailedPersistRollsBack(t *testing.T) {
	blobs := &flakyBlobs{Store: memory.New()}
	s := openStore(t, blobs)
	ctx := context.Background()
	e, err := s.Add(ctx, fields(100, core.Other, 2025, 3, 1, "keep"))
	require.NoError(t, err)
	before := s.List()
	rev := s.Revision()

	blobs.setFailing(true)
	_, err = s.Add(ctx, fields(200, core.Other, 2025, 3, 1, "lost"))
	assert.Error(t, err)
	_, err = s.Update(ctx, e.ID, fields(300, core.Other, 2025, 3, 1, "changed"))
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, e.ID))

	assert.Equal(t, before, s.List())
	assert.Equal(t, rev, s.Revision())

	blobs.setFailing(false)
	next, err := s.Add(ctx, fields(200, core.Other, 2025, 3, 1, "saved"))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(testNow.UnixMilli()+1, 10), next.ID)
}

func TestApplyCommands(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()

	cmd, err := core.FormState{Amount: "12,50", Category: "food & dining", Date: "2025-03-10", Description: "Pizza"}.Submit(testNow)
	require.NoError(t, err)
	e, err := s.Apply(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), e.Amount.Cents)

	form := core.FormStateFrom(e)
	form.Description = "Pizza night"
	cmd, err = form.Submit(testNow)
	require.NoError(t, err)
	_, err = s.Apply(ctx, cmd)
	require.NoError(t, err)

	got, _ := s.Get(e.ID)
	assert.Equal(t, "Pizza night", got.Description)
	assert.Equal(t, 1, s.Len())
}

func TestOnChangeObserver(t *testing.T) {
	var ops []string
	var counts []int
	s, err := Open(context.Background(), memory.New(), Options{
		Now:    func() time.Time { return testNow },
		Logger: log.Discard(),
		OnChange: func(op string, n int) {
			ops = append(ops, op)
			counts = append(counts, n)
		},
	})
	require.NoError(t, err)
	ctx := context.Background()
	e, _ := s.Add(ctx, fields(100, core.Other, 2025, 3, 1, "a"))
	_, _ = s.Update(ctx, e.ID, fields(200, core.Other, 2025, 3, 1, "a"))
	_ = s.Delete(ctx, e.ID)

	assert.Equal(t, []string{OpAdd, OpUpdate, OpDelete}, ops)
	assert.Equal(t, []int{1, 1, 0}, counts)
}

func TestConcurrentAddsGetUniqueIDs(t *testing.T) {
	s := openStore(t, memory.New())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, fields(100, core.Other, 2025, 3, 1, "x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, e := range s.List() {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, uint64(20), s.Revision())
}

// unreadableBlobs fails every Get and counts Puts.
type unreadableBlobs struct {
	puts int
}

func (u *unreadableBlobs) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("database is locked")
}

func (u *unreadableBlobs) Put(context.Context, string, []byte) error {
	u.puts++
	return nil
}

func TestCloseLeavesMalformedBlobUntouched(t *testing.T) {
	truncated := []byte(`[{"id":"1","amount":12.5,"category":"Other"`)
	blobs := memory.NewSeeded(map[string][]byte{DefaultKey: truncated})
	s := openStore(t, blobs)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Close(context.Background()))
	raw, err := blobs.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, truncated, raw)
	assert.Equal(t, 0, blobs.Puts())
}

func TestCloseAfterReadErrorDoesNotWrite(t *testing.T) {
	blobs := &unreadableBlobs{}
	s := openStore(t, blobs)
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 0, blobs.puts)
}

func TestCloseKeepsPersistedState(t *testing.T) {
	blobs := memory.New()
	s := openStore(t, blobs)
	_, err := s.Add(context.Background(), fields(100, core.Other, 2025, 3, 1, "a"))
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 1, blobs.Puts())
	reopened := openStore(t, blobs)
	assert.Equal(t, 1, reopened.Len())
}

func TestLoadSkipsOutOfRangeAmounts(t *testing.T) {
	blobs := memory.NewSeeded(map[string][]byte{DefaultKey: []byte(`[
		{"id":"1","amount":50000000000000,"category":"Other","date":"2025-03-01","description":"huge"},
		{"id":"2","amount":0,"category":"Other","date":"2025-03-01","description":"zero"},
		{"id":"3","amount":12.5,"category":"Other","date":"2025-03-01","description":"ok"}
	]`)})
	s := openStore(t, blobs)
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].ID)
}

func TestOpenRequiresBlobStore(t *testing.T) {
	_, err := Open(context.Background(), nil, Options{})
	assert.Error(t, err)
}
