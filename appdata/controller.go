// Package appdata is the single source of truth for the field client's
// state: the authenticated user, customers, products, sales and returns
// history. State is held in memory, mirrored to the local store so the
// app is usable offline, and refreshed from the remote API when it can
// be reached. Mutations write remotely best-effort and locally
// authoritatively; a mutex serializes all state changes.
package appdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fieldsales/localstore"
	"fieldsales/normalize"
	"fieldsales/remote"

	"github.com/google/uuid"
)

var (
	ErrNoCustomer = errors.New("sale requires a customer")
	ErrNoProducts = errors.New("sale requires at least one product")
)

// StockItem identifies a product and a positive quantity to adjust by.
type StockItem struct {
	ID       string
	Quantity int
}

// SaleLine pairs a selected product with the quantity sold.
type SaleLine struct {
	Product normalize.ProductDoc
	Qty     int
}

// SaleInput is what the sale screen submits.
type SaleInput struct {
	Customer      *remote.Customer
	Lines         []SaleLine
	Paid          float64
	PaymentStatus string
}

// ReturnRecord is a local-only ledger entry undoing a sale's stock
// effect. The original sale is never amended.
type ReturnRecord struct {
	ID           string               `json:"id"`
	CustomerID   string               `json:"customerId"`
	CustomerName string               `json:"customerName"`
	Items        []normalize.SaleItem `json:"items"`
	Remark       string               `json:"remark,omitempty"`
	CreatedAt    string               `json:"createdAt"`
}

type Notification struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// Controller orchestrates local cache, remote API and in-memory state.
type Controller struct {
	mu    sync.Mutex
	store localstore.Store
	api   *remote.Client

	user          *remote.User
	customers     []remote.Customer
	products      []normalize.ProductDoc
	sales         []normalize.SaleRecord
	returns       []ReturnRecord
	notifications []Notification
}

func New(store localstore.Store, api *remote.Client) *Controller {
	return &Controller{store: store, api: api}
}

// TokenSource reads the bearer token fresh from the store on every
// call, so remote requests always carry the latest persisted token.
func TokenSource(store localstore.Store) remote.TokenSource {
	return func() string {
		data, ok, err := store.Get(localstore.KeyUserToken)
		if err != nil || !ok {
			return ""
		}
		var token string
		if err := json.Unmarshal(data, &token); err != nil {
			return string(data)
		}
		return token
	}
}

// persist marshals v under key, logging rather than failing: the
// in-memory state is authoritative and a cache write failure must not
// undo an applied mutation.
func (c *Controller) persist(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("appdata: failed to encode %s: %v", key, err)
		return
	}
	if err := c.store.Set(key, data); err != nil {
		log.Printf("appdata: failed to persist %s: %v", key, err)
	}
}

func (c *Controller) restore(key string, v interface{}) bool {
	data, ok, err := c.store.Get(key)
	if err != nil {
		log.Printf("appdata: failed to read %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("appdata: failed to decode %s: %v", key, err)
		return false
	}
	return true
}

// Bootstrap restores cached state for immediate offline display, then
// refreshes from the remote API. The refreshes run concurrently and
// their failures are logged, never surfaced: the cached copies remain
// in effect.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.mu.Lock()
	var user remote.User
	if c.restore(localstore.KeyUser, &user) && user.ID != "" {
		c.user = &user
	}
	c.restore(localstore.KeyCustomers, &c.customers)

	var cached []normalize.ProductDoc
	if c.restore(localstore.KeyProducts, &cached) {
		c.products = cached
	}

	var saleDocs []normalize.SaleDoc
	if c.restore(localstore.KeySalesHistory, &saleDocs) {
		// Cached history may predate the canonical shape.
		c.sales = normalize.Sales(saleDocs)
	}
	c.restore(localstore.KeyReturnsHistory, &c.returns)
	c.restore(localstore.KeyNotifications, &c.notifications)
	hasUser := c.user != nil
	c.mu.Unlock()

	var wg sync.WaitGroup
	if hasUser {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.refreshSales(ctx)
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.refreshCustomers(ctx)
	}()
	go func() {
		defer wg.Done()
		c.refreshProducts(ctx)
	}()
	wg.Wait()
}

func (c *Controller) refreshSales(ctx context.Context) {
	docs, err := c.api.MySales(ctx)
	if err != nil {
		log.Printf("appdata: sales refresh failed: %v", err)
		return
	}
	records := normalize.Sales(docs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sales = records
	c.persist(localstore.KeySalesHistory, c.sales)
}

func (c *Controller) refreshCustomers(ctx context.Context) {
	customers, err := c.api.ListCustomers(ctx)
	if err != nil {
		log.Printf("appdata: customer refresh failed: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.customers = customers
	c.persist(localstore.KeyCustomers, c.customers)
}

func (c *Controller) refreshProducts(ctx context.Context) {
	raw, err := c.api.ListProducts(ctx)
	if err != nil {
		log.Printf("appdata: product refresh failed: %v", err)
		return
	}
	// Merge rather than overwrite: a partial payload must not zero out
	// known stock counts.
	c.PersistProducts(normalize.ProductList(raw))
}

// Login persists the session and sets the in-memory user. The remote
// authentication call has already happened in the caller.
func (c *Controller) Login(user remote.User, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persist(localstore.KeyUserToken, token)
	c.persist(localstore.KeyUser, user)
	c.user = &user
}

// Logout clears the persisted session and the in-memory user. It is
// synchronous and needs no network call to succeed.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(localstore.KeyUser); err != nil {
		log.Printf("appdata: failed to clear user: %v", err)
	}
	if err := c.store.Delete(localstore.KeyUserToken); err != nil {
		log.Printf("appdata: failed to clear token: %v", err)
	}
	c.user = nil
}

// IsAuthenticated reports whether a user session was restored or set.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (c *Controller) CurrentUser() *remote.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	user := *c.user
	return &user
}

// nextCustomerCode returns max(existing numeric codes)+1, zero padded
// to four digits. Codes that do not parse as numbers are skipped, so an
// empty or non-numeric set yields "0001".
func nextCustomerCode(customers []remote.Customer) string {
	max := 0
	for _, customer := range customers {
		n := 0
		if _, err := fmt.Sscanf(customer.CustomerCode, "%d", &n); err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1)
}

// AddCustomer refreshes the remote customer list best-effort, assigns
// the next sequential customer code, fills in the rep name and creates
// the customer remotely. Remote creation failure propagates to the
// caller; only success mutates local state.
func (c *Controller) AddCustomer(ctx context.Context, form remote.Customer) (*remote.Customer, error) {
	if fresh, err := c.api.ListCustomers(ctx); err != nil {
		log.Printf("appdata: customer refresh before create failed: %v", err)
	} else {
		c.mu.Lock()
		c.customers = fresh
		c.persist(localstore.KeyCustomers, c.customers)
		c.mu.Unlock()
	}

	c.mu.Lock()
	form.CustomerCode = nextCustomerCode(c.customers)
	if form.MedRepName == "" && c.user != nil {
		form.MedRepName = c.user.Name
	}
	c.mu.Unlock()

	created, err := c.api.CreateCustomer(ctx, form)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.customers = append([]remote.Customer{*created}, c.customers...)
	c.persist(localstore.KeyCustomers, c.customers)
	c.mu.Unlock()

	return created, nil
}

// DecrementStock removes quantity from each product's stock. Remote
// adjustments are attempted per item and their failures logged, never
// blocking the local change: the local state is the operation's
// effective result, remote sync is at-least-once.
func (c *Controller) DecrementStock(ctx context.Context, items []StockItem) {
	for _, item := range items {
		err := c.api.RemoveStock(ctx, remote.StockAdjust{ProductID: item.ID, Quantity: item.Quantity})
		if err != nil {
			log.Printf("appdata: remote stock remove failed for %s: %v", item.ID, err)
		}
	}
	c.applyStockDelta(items, -1)
}

// IncrementStock adds quantity back to each product's stock, same
// contract as DecrementStock.
func (c *Controller) IncrementStock(ctx context.Context, items []StockItem) {
	for _, item := range items {
		err := c.api.AddStock(ctx, remote.StockAdjust{ProductID: item.ID, Quantity: item.Quantity})
		if err != nil {
			log.Printf("appdata: remote stock add failed for %s: %v", item.ID, err)
		}
	}
	c.applyStockDelta(items, 1)
}

func (c *Controller) applyStockDelta(items []StockItem, sign int) {
	deltas := make(map[string]int, len(items))
	for _, item := range items {
		deltas[item.ID] += sign * item.Quantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		delta, ok := deltas[c.products[i].Key()]
		if !ok {
			continue
		}
		next := c.products[i].StockValue() + delta
		if next < 0 {
			next = 0
		}
		stock := next
		c.products[i].Stock = &stock
	}
	c.persist(localstore.KeyProducts, c.products)
}

// CreateSale validates the selection, writes the sale to the local
// history first, decrements stock, then creates the sale remotely.
// Validation and remote errors propagate; the optimistic local write
// happens before either.
func (c *Controller) CreateSale(ctx context.Context, input SaleInput) (json.RawMessage, error) {
	if input.Customer == nil {
		return nil, ErrNoCustomer
	}
	if len(input.Lines) == 0 {
		return nil, ErrNoProducts
	}

	record := normalize.SaleRecord{
		InvoiceNumber: fmt.Sprintf("INV-%d", time.Now().UnixMilli()),
		CustomerID:    input.Customer.ID,
		CustomerName:  input.Customer.Name,
		Paid:          input.Paid,
		PaymentStatus: input.PaymentStatus,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	stockItems := make([]StockItem, 0, len(input.Lines))
	var total float64
	for _, line := range input.Lines {
		amount := normalize.Round2(float64(line.Qty) * line.Product.Price)
		total += amount
		record.Items = append(record.Items, normalize.SaleItem{
			ID:           line.Product.Key(),
			ProductID:    line.Product.Key(),
			ProductName:  line.Product.Name,
			SalesQty:     line.Qty,
			SellingPrice: line.Product.Price,
			Amount:       amount,
		})
		stockItems = append(stockItems, StockItem{ID: line.Product.Key(), Quantity: line.Qty})
	}
	record.GrandTotal = normalize.Round2(total)
	record.Due = normalize.Round2(record.GrandTotal - record.Paid)
	if record.PaymentStatus == "" {
		if record.Due <= 0 {
			record.PaymentStatus = "paid"
		} else {
			record.PaymentStatus = "due"
		}
	}

	c.mu.Lock()
	c.sales = append([]normalize.SaleRecord{record}, c.sales...)
	c.persist(localstore.KeySalesHistory, c.sales)
	c.notify(fmt.Sprintf("Sale %s created for %s", record.InvoiceNumber, record.CustomerName))
	c.mu.Unlock()

	c.DecrementStock(ctx, stockItems)

	return c.api.CreateSale(ctx, record)
}

// PersistProducts merges the incoming list with known products by
// identity. Incoming stock takes precedence when present; a payload
// that omits stock keeps the known count instead of zeroing it.
func (c *Controller) PersistProducts(next []normalize.ProductDoc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := make(map[string]normalize.ProductDoc, len(c.products))
	for _, product := range c.products {
		known[product.Key()] = product
	}

	merged := make([]normalize.ProductDoc, 0, len(next))
	for _, product := range next {
		if prev, ok := known[product.Key()]; ok && product.Stock == nil {
			product.Stock = prev.Stock
		}
		merged = append(merged, product)
	}

	c.products = merged
	c.persist(localstore.KeyProducts, c.products)
}

// AddReturn prepends a return to the local ledger. No remote call:
// stock restoration goes through IncrementStock separately.
func (c *Controller) AddReturn(record ReturnRecord) ReturnRecord {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.returns = append([]ReturnRecord{record}, c.returns...)
	c.persist(localstore.KeyReturnsHistory, c.returns)
	c.notify(fmt.Sprintf("Return recorded for %s", record.CustomerName))
	return record
}

// notify appends a notification entry. Caller holds the lock.
func (c *Controller) notify(message string) {
	c.notifications = append([]Notification{{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}}, c.notifications...)
	c.persist(localstore.KeyNotifications, c.notifications)
}

func (c *Controller) Customers() []remote.Customer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]remote.Customer, len(c.customers))
	copy(out, c.customers)
	return out
}

func (c *Controller) Products() []normalize.ProductDoc {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]normalize.ProductDoc, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Controller) Sales() []normalize.SaleRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]normalize.SaleRecord, len(c.sales))
	copy(out, c.sales)
	return out
}

func (c *Controller) Returns() []ReturnRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ReturnRecord, len(c.returns))
	copy(out, c.returns)
	return out
}

func (c *Controller) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}
