package resolver

import (
	"context"
	"sync"

	"copper-intel-workers/internal/common/copper"
	"copper-intel-workers/internal/models"
)

type searchCall struct {
	collection models.Collection
	filter     copper.Filter
}

// fakeCRM serves full collections for empty filters and canned related lists for
// filtered searches.
type fakeCRM struct {
	mu       sync.Mutex
	all      map[models.Collection][]models.Record
	filtered map[models.Collection][]models.Record
	byID     map[string]models.Record
	fail     map[models.Collection]error
	calls    []searchCall
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		all:      map[models.Collection][]models.Record{},
		filtered: map[models.Collection][]models.Record{},
		byID:     map[string]models.Record{},
		fail:     map[models.Collection]error{},
	}
}

func (f *fakeCRM) Search(_ context.Context, c models.Collection, filter copper.Filter) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{collection: c, filter: filter})
	if err := f.fail[c]; err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return f.all[c], nil
	}
	return f.filtered[c], nil
}

func (f *fakeCRM) Get(_ context.Context, c models.Collection, id string) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[c]; err != nil {
		return nil, err
	}
	rec, ok := f.byID[string(c)+"/"+id]
	if !ok {
		return nil, copper.ErrNotFound
	}
	return rec, nil
}

func (f *fakeCRM) callsFor(c models.Collection) []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []searchCall
	for _, call := range f.calls {
		if call.collection == c {
			out = append(out, call)
		}
	}
	return out
}

func rec(id float64, fields map[string]interface{}) models.Record {
	r := models.Record{"id": id}
	for k, v := range fields {
		r[k] = v
	}
	return r
}
