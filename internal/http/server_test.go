package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/dashboard"
	applog "viagem/internal/log"
	"viagem/internal/services"
	"viagem/internal/sheets/memory"
)

type testServer struct {
	srv   *Server
	api   *memory.Store
	store *cache.MemoryStore
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	api := memory.New()
	api.Load(memory.Seed{
		Budgets: []core.Budget{
			{Origin: "Casal", Description: "Poupança", Amount: 10000, Date: core.NewDate(2025, 1, 1)},
		},
		Expenses: []core.Expense{
			{Description: "Jantar", Amount: 300, Currency: "BRL", AmountInBRL: 300, Category: "Alimentação", BudgetOrigin: "Casal", Date: core.NewDate(2025, 2, 10), Country: "Chile"},
		},
		Attractions: []core.Attraction{
			{Name: "Cerro San Cristóbal", Country: "Chile", City: "Santiago", Date: core.NewDate(2025, 2, 10), Currency: "CLP"},
			{Name: "La Moneda", Country: "Chile", City: "Santiago", Date: core.NewDate(2025, 2, 10), Currency: "CLP"},
		},
		Checklist: []core.ChecklistItem{{Description: "Passaporte", Category: "Documentos"}},
	})
	store := cache.NewMemoryStore(100, 0)
	trip := services.NewTrip(services.Config{
		API:       api,
		Store:     store,
		StaleTime: time.Hour,
		Partition: services.DefaultPartitionOptions(),
	})
	if opts.Countries == nil {
		opts.Countries = []string{"Chile", "Argentina"}
	}
	if err := trip.Warm(context.Background(), opts.Countries); err != nil {
		t.Fatalf("warm: %v", err)
	}
	opts.Logger = applog.New(applog.Config{Output: io.Discard})
	srv := NewServer(":0", trip, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, api: api, store: store}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "203.0.113.10:40000"
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: missing request id header", path)
		}
	}

	notReady := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("mirror closed") }})
	if rr := notReady.do(t, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/budgets", `{"origin":"Pessoal","description":"Bônus","amount":2000,"date":"2025-01-05"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Budget](t, rr)
	if created.ID != 2 {
		t.Fatalf("expected id 2, got %d", created.ID)
	}

	summary := decode[core.BudgetSummary](t, ts.do(t, http.MethodGet, "/api/summary", ""))
	if summary.TotalBudget != 12000 || summary.TotalSpent != 300 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rr = ts.do(t, http.MethodPut, "/api/budgets/2", `{"origin":"Pessoal","description":"Bônus","amount":2500,"date":"2025-01-05"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	summary = decode[core.BudgetSummary](t, ts.do(t, http.MethodGet, "/api/summary", ""))
	if summary.TotalBudget != 12500 {
		t.Fatalf("summary not patched after update: %+v", summary)
	}

	if rr := ts.do(t, http.MethodDelete, "/api/budgets/1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	list := decode[listResponse[core.Budget]](t, ts.do(t, http.MethodGet, "/api/budgets", ""))
	if list.Count != 1 || list.Items[0].ID != 1 || list.Items[0].Origin != "Pessoal" {
		t.Fatalf("expected renumbered budget list, got %+v", list)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
		check  func(t *testing.T, body errorResponse)
	}{
		{
			name:   "validation errors list fields",
			method: http.MethodPost, target: "/api/budgets",
			body: `{"origin":"","description":"","amount":0}`,
			want: http.StatusBadRequest,
			check: func(t *testing.T, body errorResponse) {
				for _, f := range []string{"origin", "description", "amount"} {
					if body.Fields[f] == "" {
						t.Errorf("missing field error for %s in %+v", f, body.Fields)
					}
				}
			},
		},
		{name: "malformed json", method: http.MethodPost, target: "/api/budgets", body: `{"origin":`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/api/checklist", body: `{"description":"x","category":"y","colour":"red"}`, want: http.StatusBadRequest},
		{name: "empty body", method: http.MethodPost, target: "/api/checklist", want: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, target: "/api/budgets/abc", want: http.StatusBadRequest},
		{name: "zero id", method: http.MethodGet, target: "/api/budgets/0", want: http.StatusBadRequest},
		{name: "missing budget", method: http.MethodGet, target: "/api/budgets/9", want: http.StatusNotFound},
		{name: "missing expense", method: http.MethodDelete, target: "/api/expenses/Chile/5", want: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPatch, target: "/api/budgets", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if tt.check != nil {
				tt.check(t, decode[errorResponse](t, rr))
			}
		})
	}
}

func TestExpenseMoveBetweenCountries(t *testing.T) {
	ts := newTestServer(t, Options{})

	body := `{"description":"Jantar","amount":300,"currency":"BRL","amountInBRL":300,"category":"Alimentação","budgetOrigin":"Casal","date":"2025-02-10","country":"Argentina"}`
	rr := ts.do(t, http.MethodPut, "/api/expenses/Chile/1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	moved := decode[core.Expense](t, rr)
	if moved.Country != "Argentina" || moved.ID != 1 {
		t.Fatalf("unexpected moved expense %+v", moved)
	}

	chile := decode[listResponse[core.Expense]](t, ts.do(t, http.MethodGet, "/api/expenses/Chile", ""))
	argentina := decode[listResponse[core.Expense]](t, ts.do(t, http.MethodGet, "/api/expenses/Argentina", ""))
	if chile.Count != 0 || argentina.Count != 1 {
		t.Fatalf("unexpected partitions chile=%+v argentina=%+v", chile, argentina)
	}

	all := decode[listResponse[core.Expense]](t, ts.do(t, http.MethodGet, "/api/expenses?countries=Chile,Argentina", ""))
	if all.Count != 1 {
		t.Fatalf("expected 1 expense overall, got %+v", all)
	}
}

func TestAttractionReorder(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/attractions/Chile/reorder", `{"date":"2025-02-10","ids":[2,1]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reorder status=%d body=%s", rr.Code, rr.Body.String())
	}

	list := decode[listResponse[core.Attraction]](t, ts.do(t, http.MethodGet, "/api/attractions/Chile", ""))
	orders := map[string]int{}
	for _, a := range list.Items {
		orders[a.Name] = a.Order
		if a.Day != 1 {
			t.Errorf("%s: day %d, want 1", a.Name, a.Day)
		}
	}
	if orders["La Moneda"] != 1 || orders["Cerro San Cristóbal"] != 2 {
		t.Fatalf("unexpected orders %v", orders)
	}

	if rr := ts.do(t, http.MethodPost, "/api/attractions/Chile/reorder", `{"ids":[1]}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("reorder without date status=%d", rr.Code)
	}
}

func TestChecklistToggleAndDashboard(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/checklist/1/toggle", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle status=%d body=%s", rr.Code, rr.Body.String())
	}
	if item := decode[core.ChecklistItem](t, rr); !item.IsPacked {
		t.Fatal("item should be packed after toggle")
	}

	rr = ts.do(t, http.MethodPost, "/api/reservations", `{"type":"transport","title":"Voo GRU-SCL","date":"2025-02-09"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("reservation status=%d body=%s", rr.Code, rr.Body.String())
	}
	if res := decode[core.Reservation](t, rr); res.Status != core.ReservationPending {
		t.Fatalf("expected pending default status, got %q", res.Status)
	}

	overview := decode[dashboard.Overview](t, ts.do(t, http.MethodGet, "/api/dashboard", ""))
	if overview.TotalBudget != 10000 || overview.TotalSpent != 300 || overview.Remaining != 9700 {
		t.Fatalf("unexpected totals %+v", overview)
	}
	if overview.Checklist.Packed != 1 || overview.Reservations[core.ReservationPending] != 1 {
		t.Fatalf("unexpected checklist/reservations %+v", overview)
	}
}

func TestRefreshPicksUpRemoteChanges(t *testing.T) {
	ts := newTestServer(t, Options{})
	ctx := context.Background()

	if list := decode[listResponse[core.Budget]](t, ts.do(t, http.MethodGet, "/api/budgets", "")); list.Count != 1 {
		t.Fatalf("expected 1 budget, got %d", list.Count)
	}
	// Written behind the cache's back, as another device would.
	if _, err := ts.api.CreateBudget(ctx, core.Budget{Origin: "Pessoal", Description: "Extra", Amount: 50}); err != nil {
		t.Fatal(err)
	}
	if list := decode[listResponse[core.Budget]](t, ts.do(t, http.MethodGet, "/api/budgets", "")); list.Count != 1 {
		t.Fatalf("fresh cache should still serve 1 budget, got %d", list.Count)
	}

	if rr := ts.do(t, http.MethodPost, "/api/refresh", ""); rr.Code != http.StatusOK {
		t.Fatalf("refresh status=%d body=%s", rr.Code, rr.Body.String())
	}
	if list := decode[listResponse[core.Budget]](t, ts.do(t, http.MethodGet, "/api/budgets", "")); list.Count != 2 {
		t.Fatalf("expected 2 budgets after refresh, got %d", list.Count)
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	ts := newTestServer(t, Options{RequestsPerMinute: 2})
	body := `{"description":"Adaptador","category":"Eletrônicos"}`
	for i := 0; i < 2; i++ {
		if rr := ts.do(t, http.MethodPost, "/api/checklist", body); rr.Code != http.StatusCreated {
			t.Fatalf("create %d status=%d body=%s", i, rr.Code, rr.Body.String())
		}
	}
	rr := ts.do(t, http.MethodPost, "/api/checklist", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/api/checklist", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
	if _, limits, _ := ts.srv.Metrics(); limits.TotalHits != 1 {
		t.Fatalf("expected one rate limit hit, got %+v", limits)
	}
}
