package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/basket"
	"github.com/chandanbounteous/goldscanner/internal/cache"
	"github.com/chandanbounteous/goldscanner/internal/config"
	"github.com/chandanbounteous/goldscanner/internal/db"
	"github.com/chandanbounteous/goldscanner/internal/draft"
	"github.com/chandanbounteous/goldscanner/internal/goldrate"
	"github.com/chandanbounteous/goldscanner/internal/migrations"
	"github.com/chandanbounteous/goldscanner/internal/repository"
	"github.com/chandanbounteous/goldscanner/internal/seed"
)

const (
	testAdminEmail    = "admin@goldpos.test"
	testAdminPassword = "counter-pass"
)

type testEnv struct {
	srv      *server
	handler  http.Handler
	db       *sqlx.DB
	cookie   *http.Cookie
	customer int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := migrations.Up(database.DB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.Config{
		AdminEmail:     testAdminEmail,
		AdminPassword:  testAdminPassword,
		GoldRate:       150000,
		Today:          time.Now(),
		SampleArticles: true,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := config.Config{SessionSecret: "test-secret", Currency: "NPR", ReceiptLocale: "en", PricingWorkers: 2}
	srv, err := newServer(database, cfg, cache.NewNoopGoldRateCache(), zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}

	walkIn, err := repository.NewCustomers(database).FindByName(context.Background(), seed.WalkInCustomer)
	if err != nil {
		t.Fatalf("find walk-in customer: %v", err)
	}

	env := &testEnv{srv: srv, handler: srv.routes(), db: database, customer: walkIn.ID}
	env.cookie = env.login(t)
	return env
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/login", map[string]string{"email": testAdminEmail, "password": testAdminPassword}, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Value != "" {
			return c
		}
	}
	t.Fatalf("login did not set a session cookie")
	return nil
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authenticated && e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/drafts", nil, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/login", map[string]string{"email": testAdminEmail, "password": "nope"}, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestGoldRateRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/api/gold-rates/2024-02-10", map[string]float64{"rate": 148250}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("put rate status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/gold-rates/2024-02-10", nil, true)
	got := decodeBody[goldRateResponse](t, rr)
	if got.Rate24kPerTola != 148250 {
		t.Fatalf("expected rate 148250, got %v", got.Rate24kPerTola)
	}

	if rr := env.do(t, http.MethodGet, "/api/gold-rates/2001-01-01", nil, true); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing rate, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/gold-rates/10-02-2024", nil, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPut, "/api/gold-rates/2024-02-10", map[string]float64{"rate": -5}, true); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for negative rate, got %d", rr.Code)
	}
}

func TestCustomersCreateAndSearch(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "Gita Rai", "phone": "9812345678"}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create customer status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/customers?q=Gita", nil, true)
	found := decodeBody[[]repository.Customer](t, rr)
	if len(found) != 1 || found[0].Phone != "9812345678" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	if rr := env.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "  "}, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rr.Code)
	}
}

func TestBasketTextReturnsPlainText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.srv.baskets.Create(ctx, env.customer)
	if err != nil {
		t.Fatalf("create basket: %v", err)
	}
	if _, err := env.srv.baskets.AddArticle(ctx, b.ID, "RNG0001"); err != nil {
		t.Fatalf("add article: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/baskets/1/text", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	env.srv.handleBasketText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Basket #1 (open)", "Customer: " + seed.WalkInCustomer, "RNG0001", "price NPR 12,898.38", "Total:           NPR 12,898.38"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestDraftEditAndSaveFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/drafts", nil, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create draft status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[draftView](t, rr)
	if created.Mode != "create" {
		t.Fatalf("expected create mode, got %q", created.Mode)
	}
	base := "/api/drafts/" + created.ID

	rr = env.do(t, http.MethodPatch, base+"/fields/netWeight", fieldUpdateRequest{Value: "0.5"}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch net weight status=%d body=%s", rr.Code, rr.Body.String())
	}
	view := decodeBody[draftView](t, rr)
	if view.Accepted == nil || !*view.Accepted {
		t.Fatalf("expected net weight to be accepted")
	}
	if got := view.Snapshot.Fields["finalEstimatedCost"].Value.(float64); !nearlyEqual(got, 12898.38) {
		t.Fatalf("expected final cost 12898.38, got %v", got)
	}
	if got := view.Snapshot.Fields["grossWeight"].Value.(float64); !nearlyEqual(got, 0.5) {
		t.Fatalf("expected gross weight to follow net weight, got %v", got)
	}

	rr = env.do(t, http.MethodPatch, base+"/fields/netWeight", fieldUpdateRequest{Value: "abc"}, true)
	view = decodeBody[draftView](t, rr)
	if rr.Code != http.StatusOK || view.Accepted == nil || *view.Accepted {
		t.Fatalf("expected rejected input to answer 200 with accepted=false, got %d", rr.Code)
	}
	if net := view.Snapshot.Fields["netWeight"]; net.Valid || net.Raw != "abc" || net.Error == "" {
		t.Fatalf("expected echoed invalid net weight, got %+v", net)
	}

	rr = env.do(t, http.MethodPost, base+"/save", nil, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 saving an invalid draft, got %d", rr.Code)
	}
	invalid := decodeBody[invalidDraftResponse](t, rr)
	if _, ok := invalid.Fields["netWeight"]; !ok {
		t.Fatalf("expected netWeight in field errors, got %+v", invalid.Fields)
	}

	env.do(t, http.MethodPatch, base+"/fields/netWeight", fieldUpdateRequest{Value: "0.5"}, true)
	env.do(t, http.MethodPatch, base+"/fields/articleCode", fieldUpdateRequest{Value: "BNG0042"}, true)

	rr = env.do(t, http.MethodPost, base+"/save", nil, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save draft status=%d body=%s", rr.Code, rr.Body.String())
	}

	if rr := env.do(t, http.MethodGet, base, nil, true); rr.Code != http.StatusNotFound {
		t.Fatalf("expected saved draft to be discarded, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/articles/BNG0042", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("get article status=%d body=%s", rr.Code, rr.Body.String())
	}
	priced := decodeBody[pricedArticleView](t, rr)
	if got := priced.Snapshot.Fields["finalEstimatedCost"].Value.(float64); !nearlyEqual(got, 12898.38) {
		t.Fatalf("expected stored article to reprice to 12898.38, got %v", got)
	}
}

func TestDraftRejectsCalculatedField(t *testing.T) {
	env := newTestEnv(t)

	created := decodeBody[draftView](t, env.do(t, http.MethodPost, "/api/drafts", nil, true))

	rr := env.do(t, http.MethodPatch, "/api/drafts/"+created.ID+"/fields/finalEstimatedCost", fieldUpdateRequest{Value: "1"}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a calculated field, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, "/api/drafts/"+created.ID+"/fields/colour", fieldUpdateRequest{Value: "1"}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown field, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, "/api/drafts/not-a-uuid/fields/netWeight", fieldUpdateRequest{Value: "1"}, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad draft id, got %d", rr.Code)
	}
}

func TestEditDraftSavesTheLoadedArticle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.srv.articles.ByCode(ctx, "RNG0001")
	if err != nil {
		t.Fatalf("load RNG0001: %v", err)
	}

	created := decodeBody[draftView](t, env.do(t, http.MethodPost, "/api/drafts", createDraftRequest{ArticleCode: "RNG0001"}, true))
	if created.ArticleID != original.ID {
		t.Fatalf("expected draft bound to article %d, got %d", original.ID, created.ArticleID)
	}
	base := "/api/drafts/" + created.ID

	env.do(t, http.MethodPatch, base+"/fields/articleCode", fieldUpdateRequest{Value: "CHN0002"}, true)
	env.do(t, http.MethodPatch, base+"/fields/netWeight", fieldUpdateRequest{Value: "3"}, true)
	if rr := env.do(t, http.MethodPost, base+"/save", nil, true); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 taking another article's code, got %d body=%s", rr.Code, rr.Body.String())
	}
	other, err := env.srv.articles.ByCode(ctx, "CHN0002")
	if err != nil {
		t.Fatalf("load CHN0002: %v", err)
	}
	if other.NetWeight != 15 {
		t.Fatalf("expected CHN0002 untouched, got net weight %v", other.NetWeight)
	}

	env.do(t, http.MethodPatch, base+"/fields/articleCode", fieldUpdateRequest{Value: "RNG0099"}, true)
	rr := env.do(t, http.MethodPost, base+"/save", nil, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save renamed draft status=%d body=%s", rr.Code, rr.Body.String())
	}

	renamed, err := env.srv.articles.ByID(ctx, original.ID)
	if err != nil {
		t.Fatalf("load article %d: %v", original.ID, err)
	}
	if renamed.ArticleCode != "RNG0099" || renamed.NetWeight != 3 {
		t.Fatalf("expected article %d renamed with net weight 3, got %+v", original.ID, renamed.Record)
	}
	if _, err := env.srv.articles.ByCode(ctx, "RNG0001"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected old code to be gone, got %v", err)
	}
}

func TestEditDraftKeepsManualWastageUntilRecalculate(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/drafts", createDraftRequest{ArticleCode: "CHN0002"}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create edit draft status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[draftView](t, rr)
	if created.Mode != "edit" {
		t.Fatalf("expected edit mode, got %q", created.Mode)
	}
	base := "/api/drafts/" + created.ID

	view := decodeBody[draftView](t, env.do(t, http.MethodPatch, base+"/fields/wastage", fieldUpdateRequest{Value: "2"}, true))
	if !view.Snapshot.WastageOverridden {
		t.Fatalf("expected wastage to be marked overridden")
	}

	view = decodeBody[draftView](t, env.do(t, http.MethodPatch, base+"/fields/karat", fieldUpdateRequest{Value: "24"}, true))
	if got := view.Snapshot.Fields["wastage"].Value.(float64); !nearlyEqual(got, 2) {
		t.Fatalf("expected manual wastage to survive a karat change, got %v", got)
	}

	view = decodeBody[draftView](t, env.do(t, http.MethodPost, base+"/recalculate", nil, true))
	if view.Snapshot.WastageOverridden {
		t.Fatalf("expected recalculate to clear the override")
	}

	if rr := env.do(t, http.MethodPost, "/api/drafts", createDraftRequest{ArticleCode: "ZZZ9999"}, true); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 editing a missing article, got %d", rr.Code)
	}
}

func TestBasketFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/baskets", createBasketRequest{CustomerID: env.customer}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create basket status=%d body=%s", rr.Code, rr.Body.String())
	}
	detail := decodeBody[basket.Detail](t, rr)
	base := "/api/baskets/" + strconv.FormatInt(detail.Basket.ID, 10)

	rr = env.do(t, http.MethodPost, base+"/articles", addBasketArticleRequest{ArticleCode: "RNG0001"}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("add article status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPost, base+"/articles", addBasketArticleRequest{ArticleCode: "RNG0001"}, true); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 adding the same article twice, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, base+"/adjustments", adjustmentsRequest{ExtraDiscount: 2645.47}, true)
	detail = decodeBody[basket.Detail](t, rr)
	if !nearlyEqual(detail.Totals.PreTaxAmount, 10000) || !nearlyEqual(detail.Totals.TotalAmount, 10200) {
		t.Fatalf("unexpected totals after adjustments: %+v", detail.Totals)
	}

	if rr := env.do(t, http.MethodPatch, base+"/adjustments", adjustmentsRequest{OldGoldItemCost: -1}, true); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a negative old gold credit, got %d", rr.Code)
	}

	if rr := env.do(t, http.MethodPost, base+"/close", nil, true); rr.Code != http.StatusOK {
		t.Fatalf("close basket status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, base+"/articles", addBasketArticleRequest{ArticleCode: "CHN0002"}, true); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 changing a closed basket, got %d", rr.Code)
	}

	if rr := env.do(t, http.MethodPost, "/api/baskets", createBasketRequest{}, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a customer, got %d", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{badRequest("nope"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound},
		{draft.ErrNotFound, http.StatusNotFound},
		{goldrate.ErrRateUnavailable, http.StatusNotFound},
		{repository.ErrDuplicate, http.StatusConflict},
		{basket.ErrBasketClosed, http.StatusConflict},
		{draft.ErrInvalidSnapshot, http.StatusUnprocessableEntity},
		{basket.ErrInvalidAdjustment, http.StatusUnprocessableEntity},
		{goldrate.ErrInvalidRate, http.StatusUnprocessableEntity},
		{article.ErrUnknownField, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

type countingCache struct {
	cache.GoldRateCache
	invalidated int
	err         error
}

func (c *countingCache) InvalidateAll(context.Context) error {
	c.invalidated++
	return c.err
}

func TestDropCachedRates(t *testing.T) {
	c := &countingCache{GoldRateCache: cache.NewNoopGoldRateCache()}
	dropCachedRates(context.Background(), c, zerolog.Nop())
	if c.invalidated != 1 {
		t.Fatalf("expected one InvalidateAll call, got %d", c.invalidated)
	}

	c.err = errors.New("redis down")
	dropCachedRates(context.Background(), c, zerolog.Nop())
	if c.invalidated != 2 {
		t.Fatalf("expected a failing cache to be tried again, got %d calls", c.invalidated)
	}
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
