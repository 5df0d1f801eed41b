package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/draft"
)

type fieldView struct {
	Value any    `json:"value"`
	Raw   string `json:"raw"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type snapshotView struct {
	Valid                  bool                 `json:"valid"`
	WastageOverridden      bool                 `json:"wastage_overridden"`
	MakingChargeOverridden bool                 `json:"making_charge_overridden"`
	Fields                 map[string]fieldView `json:"fields"`
}

type draftView struct {
	ID        string       `json:"id"`
	Mode      string       `json:"mode"`
	ArticleID int64        `json:"article_id,omitempty"`
	Accepted  *bool        `json:"accepted,omitempty"`
	Snapshot  snapshotView `json:"snapshot"`
}

func newSnapshotView(s article.Snapshot) snapshotView {
	fields := make(map[string]fieldView, len(article.Fields()))
	for _, f := range article.Fields() {
		in := s.Input(f)
		var value any
		switch f {
		case article.ArticleCode:
			value = s.ArticleCode
		case article.Karat:
			value = int(s.Karat)
		default:
			value = s.Value(f)
		}
		fields[f.String()] = fieldView{Value: value, Raw: in.Raw, Valid: in.Valid, Error: in.Message}
	}
	return snapshotView{
		Valid:                  s.Valid(),
		WastageOverridden:      s.WastageOverridden,
		MakingChargeOverridden: s.MakingChargeOverridden,
		Fields:                 fields,
	}
}

func newDraftView(d draft.Draft) draftView {
	return draftView{ID: d.ID.String(), Mode: d.Mode.String(), ArticleID: d.ArticleID, Snapshot: newSnapshotView(d.Snapshot)}
}

func draftID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid draft id %q", raw)
	}
	return id, nil
}

type createDraftRequest struct {
	ArticleCode string `json:"article_code"`
}

// handleCreateDraft starts a create-mode draft, or an edit-mode draft
// loaded from an existing article when article_code is given.
func (s *server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	rate := s.rates.TodayOrZero(r.Context())
	if req.ArticleCode == "" {
		d := s.drafts.Create(article.New(rate))
		writeJSON(w, http.StatusCreated, newDraftView(d))
		return
	}

	existing, err := s.articles.ByCode(r.Context(), req.ArticleCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d := s.drafts.Edit(existing.ID, s.engine.FromRecord(existing.Record, rate))
	writeJSON(w, http.StatusCreated, newDraftView(d))
}

func (s *server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.drafts.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(d))
}

type fieldUpdateRequest struct {
	Value string `json:"value"`
}

// handleUpdateDraftField applies one typed-in value. Rejected input still
// answers 200: the snapshot carries the field's error for the form.
func (s *server) handleUpdateDraftField(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	field, err := article.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req fieldUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !article.Editable(field) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": field.String() + " is calculated and cannot be edited"})
		return
	}

	d, accepted, err := s.drafts.Apply(id, func(snap article.Snapshot) (article.Snapshot, bool) {
		return s.engine.ApplyRaw(snap, field, req.Value)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view := newDraftView(d)
	view.Accepted = &accepted
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleRecalculateDraft(w http.ResponseWriter, r *http.Request) {
	s.applyToDraft(w, r, func(snap article.Snapshot) (article.Snapshot, bool) {
		return s.engine.RecalculateAll(snap), true
	})
}

// handleRefreshDraftRate reprices the draft at the current gold rate.
func (s *server) handleRefreshDraftRate(w http.ResponseWriter, r *http.Request) {
	rate := s.rates.TodayOrZero(r.Context())
	s.applyToDraft(w, r, func(snap article.Snapshot) (article.Snapshot, bool) {
		return s.engine.Apply(snap, article.SetGoldRate{Rate: rate})
	})
}

func (s *server) applyToDraft(w http.ResponseWriter, r *http.Request, fn func(article.Snapshot) (article.Snapshot, bool)) {
	id, err := draftID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, _, err := s.drafts.Apply(id, fn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(d))
}

type invalidDraftResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (s *server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.drafts.Save(r.Context(), id, s.articles)
	if errors.Is(err, draft.ErrInvalidSnapshot) {
		resp := invalidDraftResponse{Error: err.Error(), Fields: map[string]string{}}
		if d, getErr := s.drafts.Get(id); getErr == nil {
			for f, msg := range d.Snapshot.Errors() {
				resp.Fields[f.String()] = msg
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.drafts.Delete(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pricedArticleView struct {
	ID        int64        `json:"id"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
	Snapshot  snapshotView `json:"snapshot"`
}

func (s *server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.articles.ByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap := s.engine.FromRecord(a.Record, s.rates.TodayOrZero(r.Context()))
	writeJSON(w, http.StatusOK, pricedArticleView{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Snapshot:  newSnapshotView(snap),
	})
}
