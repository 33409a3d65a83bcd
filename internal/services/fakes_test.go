package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codessa-project/inkwell/internal/models"
)

// In-memory collaborators for exercising the core without GCP. The fake
// store assigns strictly increasing timestamps at write time and orders
// queries newest-first, like the real one; its cursors are the ids of the
// records a page resumes after.

type cursorID string

var fakeEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu       sync.Mutex
	seq      int
	scrolls  map[string]*models.Scroll
	inserted []string
	calls    []string

	failPut    bool
	failUpdate bool
	failDelete bool
	failQuery  error // returned verbatim by Query when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{scrolls: make(map[string]*models.Scroll)}
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) Put(_ context.Context, s *models.Scroll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("put")
	if f.failPut {
		return errors.New("store unavailable")
	}
	cp := *s
	f.seq++
	cp.Metadata.CreatedAt = fakeEpoch.Add(time.Duration(f.seq) * time.Second)
	f.scrolls[cp.ID] = &cp
	f.inserted = append(f.inserted, cp.ID)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.Scroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get")
	s, ok := f.scrolls[id]
	if !ok {
		return nil, ErrScrollNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, id string, changes models.ScrollUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update")
	if f.failUpdate {
		return errors.New("store unavailable")
	}
	s, ok := f.scrolls[id]
	if !ok {
		return ErrScrollNotFound
	}
	s.Content.Summary = changes.Summary
	s.Content.Topics = changes.Topics
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if f.failDelete {
		return errors.New("store unavailable")
	}
	delete(f.scrolls, id)
	for i, in := range f.inserted {
		if in == id {
			f.inserted = append(f.inserted[:i], f.inserted[i+1:]...)
			break
		}
	}
	return nil
}

// ordered returns a tenant's scrolls newest-first.
func (f *fakeStore) ordered(tenant string) []*models.Scroll {
	var out []*models.Scroll
	for _, s := range f.scrolls {
		if s.Metadata.CreatedBy == tenant {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.CreatedAt.After(out[j].Metadata.CreatedAt)
	})
	return out
}

func (f *fakeStore) Query(_ context.Context, q ScrollQuery) ([]QueryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("query")
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	ordered := f.ordered(q.Tenant)
	start := 0
	if q.StartAfter != nil {
		cid, ok := q.StartAfter.(cursorID)
		if !ok {
			return nil, errors.New("unrecognized cursor")
		}
		start = len(ordered)
		for i, s := range ordered {
			if s.ID == string(cid) {
				start = i + 1
				break
			}
		}
	}
	var items []QueryItem
	for i := start; i < len(ordered) && (q.Limit <= 0 || len(items) < q.Limit); i++ {
		cp := *ordered[i]
		items = append(items, QueryItem{Scroll: &cp, Cursor: cursorID(cp.ID)})
	}
	return items, nil
}

func (f *fakeStore) GetBatch(_ context.Context, ids []string) ([]*models.Scroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getBatch")
	var out []*models.Scroll
	// Reverse order on purpose: the contract says batch results are
	// unordered, and the browser has to restore the ranking itself.
	for i := len(ids) - 1; i >= 0; i-- {
		if s, ok := f.scrolls[ids[i]]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	records  map[string]*models.SearchRecord
	inserted []string
	calls    []string

	failSave   bool
	failUpdate bool
	failDelete bool
	failSearch bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]*models.SearchRecord)}
}

func (f *fakeIndex) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeIndex) Save(_ context.Context, rec *models.SearchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("save")
	if f.failSave {
		return errors.New("index unavailable")
	}
	cp := *rec
	if _, ok := f.records[cp.ObjectID]; !ok {
		f.inserted = append(f.inserted, cp.ObjectID)
	}
	f.records[cp.ObjectID] = &cp
	return nil
}

func (f *fakeIndex) Update(_ context.Context, upd models.SearchUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update")
	if f.failUpdate {
		return errors.New("index unavailable")
	}
	rec, ok := f.records[upd.ObjectID]
	if !ok {
		return errors.New("object not found")
	}
	rec.Summary = upd.Summary
	rec.Topics = upd.Topics
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if f.failDelete {
		return errors.New("index unavailable")
	}
	delete(f.records, objectID)
	for i, in := range f.inserted {
		if in == objectID {
			f.inserted = append(f.inserted[:i], f.inserted[i+1:]...)
			break
		}
	}
	return nil
}

// Search matches the term against summary, raw text, and topics, filters by
// the tenant predicate, and ranks newest-first.
func (f *fakeIndex) Search(_ context.Context, q SearchQuery) (*SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("search")
	if f.failSearch {
		return nil, errors.New("index unavailable")
	}
	tenant := strings.TrimPrefix(q.Filter, "metadata.created_by:")
	term := strings.ToLower(q.Term)

	var matches []string
	for i := len(f.inserted) - 1; i >= 0; i-- {
		rec := f.records[f.inserted[i]]
		if rec.Metadata.CreatedBy != tenant {
			continue
		}
		if f.matches(rec, term) {
			matches = append(matches, rec.ObjectID)
		}
	}

	totalPages := 0
	if q.PageSize > 0 {
		totalPages = (len(matches) + q.PageSize - 1) / q.PageSize
	}
	start := q.Page * q.PageSize
	if start > len(matches) {
		start = len(matches)
	}
	end := start + q.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return &SearchResult{IDs: matches[start:end], TotalPages: totalPages}, nil
}

func (f *fakeIndex) matches(rec *models.SearchRecord, term string) bool {
	if strings.Contains(strings.ToLower(rec.Summary), term) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.RawText), term) {
		return true
	}
	for _, t := range rec.Topics {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

type fakeParser struct {
	content *models.ParsedContent
	err     error
	calls   int
}

func (f *fakeParser) Parse(context.Context, string) (*models.ParsedContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}
