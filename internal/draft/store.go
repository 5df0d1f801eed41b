// Package draft keeps the articles currently being edited. Each draft is
// one snapshot cell, replaced atomically on every edit.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/repository"
)

var (
	// ErrNotFound is returned for an unknown or already saved draft ID.
	ErrNotFound = errors.New("draft: not found")
	// ErrInvalidSnapshot is returned when saving a draft with rejected or
	// missing inputs.
	ErrInvalidSnapshot = errors.New("draft: snapshot is not valid for saving")
)

// Mode tells Save whether a draft inserts a new article or updates one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Draft is one article being priced. ArticleID is the stored article an
// edit-mode draft was loaded from and is zero in create mode.
type Draft struct {
	ID        uuid.UUID
	Mode      Mode
	ArticleID int64
	Snapshot  article.Snapshot
	UpdatedAt time.Time

	rev uint64
}

// ArticleWriter persists saved drafts.
type ArticleWriter interface {
	Create(ctx context.Context, rec article.Record) (repository.Article, error)
	Update(ctx context.Context, id int64, rec article.Record) (repository.Article, error)
}

// Store holds drafts in memory, keyed by ID. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	now    func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{drafts: make(map[uuid.UUID]Draft), now: time.Now}
}

// Create starts a create-mode draft from snap.
func (s *Store) Create(snap article.Snapshot) Draft {
	return s.add(Draft{Mode: ModeCreate, Snapshot: snap})
}

// Edit starts an edit-mode draft for the stored article articleID.
func (s *Store) Edit(articleID int64, snap article.Snapshot) Draft {
	return s.add(Draft{Mode: ModeEdit, ArticleID: articleID, Snapshot: snap})
}

func (s *Store) add(d Draft) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = uuid.New()
	d.UpdatedAt = s.now()
	s.drafts[d.ID] = d
	return d
}

// Get returns draft id or ErrNotFound.
func (s *Store) Get(id uuid.UUID) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

// Apply replaces the draft's snapshot with fn's result. Calls are
// serialized, so fn always sees the latest snapshot.
func (s *Store) Apply(id uuid.UUID, fn func(article.Snapshot) (article.Snapshot, bool)) (Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, accepted := fn(d.Snapshot)
	d.Snapshot = next
	d.UpdatedAt = s.now()
	d.rev++
	s.drafts[id] = d
	return d, accepted, nil
}

// Delete discards draft id.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.drafts, id)
	return nil
}

// Save persists the draft through w and discards it. Create-mode drafts
// insert a new article; edit-mode drafts update the article they were
// loaded from, even when the code was changed.
//
// An edit applied while the write is in flight is kept: the draft stays,
// switched to edit mode against the saved article.
func (s *Store) Save(ctx context.Context, id uuid.UUID, w ArticleWriter) (repository.Article, error) {
	d, err := s.Get(id)
	if err != nil {
		return repository.Article{}, err
	}
	if !d.Snapshot.Complete() {
		return repository.Article{}, ErrInvalidSnapshot
	}

	var saved repository.Article
	if d.Mode == ModeEdit {
		saved, err = w.Update(ctx, d.ArticleID, d.Snapshot.Record())
	} else {
		saved, err = w.Create(ctx, d.Snapshot.Record())
	}
	if err != nil {
		return repository.Article{}, fmt.Errorf("save draft %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.drafts[id]
	switch {
	case !ok:
	case cur.rev == d.rev:
		delete(s.drafts, id)
	default:
		cur.Mode = ModeEdit
		cur.ArticleID = saved.ID
		s.drafts[id] = cur
	}
	return saved, nil
}

// Expire drops drafts not touched since before cutoff and reports how many.
func (s *Store) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, id)
			n++
		}
	}
	return n
}

// Len reports how many drafts are open.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
