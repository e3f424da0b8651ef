package appdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldsales/localstore"
	"fieldsales/normalize"
	"fieldsales/remote"
)

func intp(v int) *int { return &v }

func newTestController(t *testing.T, handler http.Handler) (*Controller, *localstore.MemStore, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := localstore.NewMemStore()
	api := remote.New(server.URL, TokenSource(store))
	return New(store, api), store, server
}

// okStockHandler accepts stock adjustments and rejects everything else.
func okStockHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/stocks/") {
			w.Write([]byte(`{}`))
			return
		}
		http.NotFound(w, r)
	})
}

func cachedProducts(t *testing.T, store *localstore.MemStore) []normalize.ProductDoc {
	t.Helper()
	data, ok, err := store.Get(localstore.KeyProducts)
	if err != nil || !ok {
		t.Fatalf("products not cached, ok=%v err=%v", ok, err)
	}
	var products []normalize.ProductDoc
	if err := json.Unmarshal(data, &products); err != nil {
		t.Fatalf("failed to decode cached products: %v", err)
	}
	return products
}

func TestDecrementStockClampsAtZero(t *testing.T) {
	ctrl, store, _ := newTestController(t, okStockHandler())
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Name: "A", Stock: intp(10)}})

	ctrl.DecrementStock(context.Background(), []StockItem{{ID: "1", Quantity: 15}})

	products := ctrl.Products()
	if products[0].StockValue() != 0 {
		t.Fatalf("expected in-memory stock clamped to 0, got %d", products[0].StockValue())
	}
	cached := cachedProducts(t, store)
	if cached[0].StockValue() != 0 {
		t.Fatalf("expected cached stock clamped to 0, got %d", cached[0].StockValue())
	}
}

func TestDecrementStockSubtracts(t *testing.T) {
	ctrl, _, _ := newTestController(t, okStockHandler())
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Stock: intp(10)}})

	ctrl.DecrementStock(context.Background(), []StockItem{{ID: "1", Quantity: 4}})

	if got := ctrl.Products()[0].StockValue(); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}
}

func TestIncrementStockAdds(t *testing.T) {
	ctrl, _, _ := newTestController(t, okStockHandler())
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Stock: intp(10)}})

	ctrl.IncrementStock(context.Background(), []StockItem{{ID: "1", Quantity: 5}})

	if got := ctrl.Products()[0].StockValue(); got != 15 {
		t.Fatalf("expected stock 15, got %d", got)
	}
}

func TestStockAppliedLocallyWhenRemoteFails(t *testing.T) {
	ctrl, _, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Stock: intp(10)}})

	ctrl.DecrementStock(context.Background(), []StockItem{{ID: "1", Quantity: 3}})

	if got := ctrl.Products()[0].StockValue(); got != 7 {
		t.Fatalf("remote failure must not block local adjustment, got stock %d", got)
	}
}

func TestPersistProductsKeepsStockOnPartialPayload(t *testing.T) {
	ctrl, _, _ := newTestController(t, okStockHandler())
	ctrl.PersistProducts([]normalize.ProductDoc{{MongoID: "1", Name: "A", Stock: intp(7)}})

	// Incoming payload omits stock entirely.
	ctrl.PersistProducts([]normalize.ProductDoc{{MongoID: "1", Name: "A renamed"}})

	products := ctrl.Products()
	if products[0].StockValue() != 7 {
		t.Fatalf("omitted stock must not zero known stock, got %d", products[0].StockValue())
	}
	if products[0].Name != "A renamed" {
		t.Fatalf("non-stock fields should come from incoming payload, got %q", products[0].Name)
	}
}

func TestPersistProductsExplicitStockWins(t *testing.T) {
	ctrl, _, _ := newTestController(t, okStockHandler())
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Stock: intp(7)}})

	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "1", Stock: intp(0)}})

	if got := ctrl.Products()[0].StockValue(); got != 0 {
		t.Fatalf("explicit stock 0 must win, got %d", got)
	}
}

func TestAddCustomerSequentialCode(t *testing.T) {
	ctrl, _, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/customers":
			w.Write([]byte(`[{"id":"c1","customerCode":"0001"},{"id":"c2","customerCode":"0003"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/customers":
			var form remote.Customer
			json.NewDecoder(r.Body).Decode(&form)
			form.ID = "c3"
			json.NewEncoder(w).Encode(form)
		default:
			http.NotFound(w, r)
		}
	}))

	created, err := ctrl.AddCustomer(context.Background(), remote.Customer{Name: "New Pharmacy"})
	if err != nil {
		t.Fatalf("add customer failed: %v", err)
	}
	if created.CustomerCode != "0004" {
		t.Fatalf("expected code 0004, got %q", created.CustomerCode)
	}

	customers := ctrl.Customers()
	if len(customers) != 3 || customers[0].ID != "c3" {
		t.Fatalf("expected new customer prepended, got %+v", customers)
	}
}

func TestAddCustomerDefaultCodeAndRepName(t *testing.T) {
	ctrl, _, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/customers":
			w.Write([]byte(`[{"id":"c1","customerCode":"legacy"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/customers":
			var form remote.Customer
			json.NewDecoder(r.Body).Decode(&form)
			form.ID = "c2"
			json.NewEncoder(w).Encode(form)
		default:
			http.NotFound(w, r)
		}
	}))
	ctrl.Login(remote.User{ID: "u1", Name: "Rep One"}, "tok")

	created, err := ctrl.AddCustomer(context.Background(), remote.Customer{Name: "Clinic"})
	if err != nil {
		t.Fatalf("add customer failed: %v", err)
	}
	if created.CustomerCode != "0001" {
		t.Fatalf("non-numeric codes should default to 0001, got %q", created.CustomerCode)
	}
	if created.MedRepName != "Rep One" {
		t.Fatalf("expected rep name from logged-in user, got %q", created.MedRepName)
	}
}

func TestAddCustomerPropagatesRemoteFailure(t *testing.T) {
	ctrl, _, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Name required"}`))
	}))

	_, err := ctrl.AddCustomer(context.Background(), remote.Customer{})
	if err == nil {
		t.Fatalf("expected create failure to propagate")
	}
	if len(ctrl.Customers()) != 0 {
		t.Fatalf("failed create must not mutate customer list")
	}
}

func TestCreateSaleValidatesBeforeAnyIO(t *testing.T) {
	ctrl, store, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL.Path)
	}))

	_, err := ctrl.CreateSale(context.Background(), SaleInput{Lines: []SaleLine{{Product: normalize.ProductDoc{ID: "1"}, Qty: 1}}})
	if !errors.Is(err, ErrNoCustomer) {
		t.Fatalf("expected ErrNoCustomer, got %v", err)
	}

	_, err = ctrl.CreateSale(context.Background(), SaleInput{Customer: &remote.Customer{ID: "c1"}})
	if !errors.Is(err, ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}

	if _, ok, _ := store.Get(localstore.KeySalesHistory); ok {
		t.Fatalf("validation failure must not touch the cache")
	}
}

func TestCreateSaleOptimisticLocalWrite(t *testing.T) {
	// Remote sale creation fails; the local history and stock must
	// already reflect the sale.
	ctrl, store, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/stocks/") {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	ctrl.PersistProducts([]normalize.ProductDoc{{ID: "p1", Name: "Paracetamol", Price: 2.5, Stock: intp(10)}})

	_, err := ctrl.CreateSale(context.Background(), SaleInput{
		Customer: &remote.Customer{ID: "c1", Name: "Pharmacy One"},
		Lines:    []SaleLine{{Product: ctrl.Products()[0], Qty: 4}},
		Paid:     10,
	})
	if err == nil {
		t.Fatalf("expected remote failure to propagate")
	}

	sales := ctrl.Sales()
	if len(sales) != 1 {
		t.Fatalf("expected optimistic local sale record, got %d", len(sales))
	}
	sale := sales[0]
	if !strings.HasPrefix(sale.InvoiceNumber, "INV-") {
		t.Fatalf("unexpected invoice number %q", sale.InvoiceNumber)
	}
	if sale.GrandTotal != 10 || sale.Due != 0 || sale.PaymentStatus != "paid" {
		t.Fatalf("unexpected totals: %+v", sale)
	}
	if sale.Items[0].Amount != 10 {
		t.Fatalf("expected line amount 10, got %v", sale.Items[0].Amount)
	}

	if got := ctrl.Products()[0].StockValue(); got != 6 {
		t.Fatalf("expected stock decremented to 6, got %d", got)
	}

	if _, ok, _ := store.Get(localstore.KeySalesHistory); !ok {
		t.Fatalf("sales history not cached")
	}
}

func TestCreateSaleTotalEqualsItemSum(t *testing.T) {
	ctrl, _, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	ctrl.PersistProducts([]normalize.ProductDoc{
		{ID: "p1", Price: 3.5, Stock: intp(100)},
		{ID: "p2", Price: 1.25, Stock: intp(100)},
	})

	products := ctrl.Products()
	_, err := ctrl.CreateSale(context.Background(), SaleInput{
		Customer: &remote.Customer{ID: "c1", Name: "Clinic"},
		Lines: []SaleLine{
			{Product: products[0], Qty: 2},
			{Product: products[1], Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	sale := ctrl.Sales()[0]
	var sum float64
	for _, item := range sale.Items {
		sum += item.Amount
	}
	if sale.GrandTotal != sum {
		t.Fatalf("grand total %v != item sum %v", sale.GrandTotal, sum)
	}
	if sale.PaymentStatus != "due" {
		t.Fatalf("unpaid sale should be due, got %q", sale.PaymentStatus)
	}
}

func TestLoginPersistsSessionAndLogoutClearsIt(t *testing.T) {
	ctrl, store, _ := newTestController(t, okStockHandler())

	ctrl.Login(remote.User{ID: "u1", Name: "Rep One"}, "tok-1")

	if !ctrl.IsAuthenticated() {
		t.Fatalf("expected authenticated after login")
	}
	if got := TokenSource(store)(); got != "tok-1" {
		t.Fatalf("token source read %q", got)
	}
	if _, ok, _ := store.Get(localstore.KeyUser); !ok {
		t.Fatalf("user not persisted")
	}

	ctrl.Logout()

	if ctrl.IsAuthenticated() {
		t.Fatalf("expected unauthenticated after logout")
	}
	if ctrl.CurrentUser() != nil {
		t.Fatalf("expected nil user after logout")
	}
	if got := TokenSource(store)(); got != "" {
		t.Fatalf("token should be cleared, got %q", got)
	}
}

func TestBootstrapKeepsCacheWhenRemoteUnreachable(t *testing.T) {
	ctrl, store, server := newTestController(t, okStockHandler())
	server.Close()

	store.Set(localstore.KeyUser, []byte(`{"id":"u1","name":"Rep One"}`))
	store.Set(localstore.KeyUserToken, []byte(`"tok"`))
	store.Set(localstore.KeyCustomers, []byte(`[{"id":"c1","name":"Pharmacy One"}]`))
	store.Set(localstore.KeyProducts, []byte(`[{"id":"p1","name":"A","stock":4}]`))
	store.Set(localstore.KeySalesHistory, []byte(`[{"_id":"s1","products":[{"product":"p1","quantity":2,"price":3}]}]`))

	ctrl.Bootstrap(context.Background())

	if !ctrl.IsAuthenticated() {
		t.Fatalf("expected session restored from cache")
	}
	if len(ctrl.Customers()) != 1 {
		t.Fatalf("expected cached customers kept")
	}
	if got := ctrl.Products()[0].StockValue(); got != 4 {
		t.Fatalf("expected cached stock kept, got %d", got)
	}

	sales := ctrl.Sales()
	if len(sales) != 1 {
		t.Fatalf("expected cached sales kept")
	}
	// Legacy cached shape is normalized on load.
	if sales[0].ID != "s1" || sales[0].Items[0].ProductID != "p1" {
		t.Fatalf("cached sale not normalized: %+v", sales[0])
	}
}

func TestBootstrapRefreshesFromRemote(t *testing.T) {
	ctrl, store, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sales/my":
			w.Write([]byte(`[{"_id":"s9","customerName":"Fresh","created_at":"2026-01-15T10:00:00Z","products":[{"product":"p1","quantity":1,"price":2}]}]`))
		case "/customers":
			w.Write([]byte(`[{"id":"c9","name":"Fresh Customer","customerCode":"0009"}]`))
		case "/products":
			// Wrapper shape, stock omitted for p1.
			w.Write([]byte(`{"products":[{"id":"p1","name":"A"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	store.Set(localstore.KeyUser, []byte(`{"id":"u1","name":"Rep One"}`))
	store.Set(localstore.KeyUserToken, []byte(`"tok"`))
	store.Set(localstore.KeyProducts, []byte(`[{"id":"p1","name":"A","stock":4}]`))

	ctrl.Bootstrap(context.Background())

	if got := ctrl.Customers(); len(got) != 1 || got[0].ID != "c9" {
		t.Fatalf("expected remote customers, got %+v", got)
	}
	if got := ctrl.Sales(); len(got) != 1 || got[0].ID != "s9" {
		t.Fatalf("expected remote sales, got %+v", got)
	} else if got[0].CreatedAt != "2026-01-15T10:00:00Z" {
		t.Fatalf("expected sale timestamp from server, got %q", got[0].CreatedAt)
	}
	// Remote payload omitted stock; the cached count must survive.
	if got := ctrl.Products()[0].StockValue(); got != 4 {
		t.Fatalf("expected merged stock 4, got %d", got)
	}

	cached := cachedProducts(t, store)
	if cached[0].StockValue() != 4 {
		t.Fatalf("expected cache updated with merged stock, got %d", cached[0].StockValue())
	}
}

func TestAddReturnLocalLedger(t *testing.T) {
	ctrl, store, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL.Path)
	}))

	record := ctrl.AddReturn(ReturnRecord{
		CustomerID:   "c1",
		CustomerName: "Pharmacy One",
		Items:        []normalize.SaleItem{{ProductID: "p1", SalesQty: 2}},
		Remark:       "damaged packaging",
	})

	if record.ID == "" || record.CreatedAt == "" {
		t.Fatalf("expected id and timestamp assigned: %+v", record)
	}
	if len(ctrl.Returns()) != 1 {
		t.Fatalf("expected return prepended")
	}
	if _, ok, _ := store.Get(localstore.KeyReturnsHistory); !ok {
		t.Fatalf("returns history not cached")
	}
	if len(ctrl.Notifications()) != 1 {
		t.Fatalf("expected a notification entry")
	}
	if _, ok, _ := store.Get(localstore.KeyNotifications); !ok {
		t.Fatalf("notifications not cached")
	}
}
