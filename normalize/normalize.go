// Package normalize reconciles the different shapes sale and product
// documents arrive in (backend responses, older cached copies) into one
// canonical representation. Every function here is pure, and
// normalizing an already-normalized record yields the same record:
// cached data is re-normalized on every app start.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// SaleItemDoc is the union of field names a sale line item can carry.
// Canonical names come first in each precedence chain so canonical
// records pass through unchanged.
type SaleItemDoc struct {
	ID             string  `json:"id"`
	MongoID        string  `json:"_id"`
	ProductID      string  `json:"productId"`
	Product        string  `json:"product"`
	ProductName    string  `json:"productName"`
	Name           string  `json:"name"`
	SalesQty       int     `json:"salesQty"`
	Quantity       int     `json:"quantity"`
	Qty            int     `json:"qty"`
	SellingPrice   float64 `json:"sellingPrice"`
	Price          float64 `json:"price"`
	UnitPrice      float64 `json:"unitPrice"`
	Amount         float64 `json:"amount"`
	TotalPrice     float64 `json:"totalPrice"`
	BonusQty       int     `json:"bonusQty"`
	DiscountAmount float64 `json:"discountAmount"`
	LossAmount     float64 `json:"lossAmount"`
}

// SaleDoc is the union shape for a whole sale record.
type SaleDoc struct {
	ID            string        `json:"id"`
	MongoID       string        `json:"_id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	CustomerID    string        `json:"customerId"`
	Customer      string        `json:"customer"`
	CustomerName  string        `json:"customerName"`
	Items         []SaleItemDoc `json:"items"`
	Products      []SaleItemDoc `json:"products"`
	GrandTotal    float64       `json:"grandTotal"`
	Total         float64       `json:"total"`
	TotalAmount   float64       `json:"totalAmount"`
	Paid          float64       `json:"paid"`
	Due           float64       `json:"due"`
	PaymentStatus string        `json:"paymentStatus"`
	Status        string        `json:"status"`
	CreatedAt     string        `json:"createdAt"`
	CreatedAtWire string        `json:"created_at"`
	Date          string        `json:"date"`
}

// SaleItem is the canonical line item shape.
type SaleItem struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	SalesQty       int     `json:"salesQty"`
	SellingPrice   float64 `json:"sellingPrice"`
	Amount         float64 `json:"amount"`
	BonusQty       int     `json:"bonusQty"`
	DiscountAmount float64 `json:"discountAmount"`
	LossAmount     float64 `json:"lossAmount"`
}

// SaleRecord is the canonical sale shape held in memory and cached.
type SaleRecord struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoiceNumber"`
	CustomerID    string     `json:"customerId"`
	CustomerName  string     `json:"customerName"`
	Items         []SaleItem `json:"items"`
	GrandTotal    float64    `json:"grandTotal"`
	Paid          float64    `json:"paid"`
	Due           float64    `json:"due"`
	PaymentStatus string     `json:"paymentStatus"`
	CreatedAt     string     `json:"createdAt"`
}

const (
	UnknownCustomer = "Unknown Customer"
	UnknownProduct  = "Unknown Product"
)

// Round2 rounds a monetary amount to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstFloat(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Item maps a line item union to its canonical shape.
func Item(doc SaleItemDoc) SaleItem {
	item := SaleItem{
		ID:             firstString(doc.ID, doc.MongoID, doc.ProductID, doc.Product),
		ProductID:      firstString(doc.ProductID, doc.Product, doc.ID, doc.MongoID),
		ProductName:    firstString(doc.ProductName, doc.Name, UnknownProduct),
		SalesQty:       firstInt(doc.SalesQty, doc.Quantity, doc.Qty),
		SellingPrice:   firstFloat(doc.SellingPrice, doc.Price, doc.UnitPrice),
		BonusQty:       doc.BonusQty,
		DiscountAmount: doc.DiscountAmount,
		LossAmount:     doc.LossAmount,
	}
	item.Amount = firstFloat(doc.Amount, doc.TotalPrice, Round2(float64(item.SalesQty)*item.SellingPrice))
	return item
}

// Sale maps a sale union to its canonical shape. Missing invoice
// numbers get a timestamp placeholder; missing names get defaults.
func Sale(doc SaleDoc) SaleRecord {
	items := doc.Items
	if len(items) == 0 {
		items = doc.Products
	}

	record := SaleRecord{
		ID:            firstString(doc.ID, doc.MongoID),
		InvoiceNumber: firstString(doc.InvoiceNumber, fmt.Sprintf("INV-%d", time.Now().UnixMilli())),
		CustomerID:    firstString(doc.CustomerID, doc.Customer),
		CustomerName:  firstString(doc.CustomerName, UnknownCustomer),
		Items:         make([]SaleItem, 0, len(items)),
		Paid:          doc.Paid,
		Due:           doc.Due,
		PaymentStatus: firstString(doc.PaymentStatus, doc.Status),
		CreatedAt:     firstString(doc.CreatedAt, doc.CreatedAtWire, doc.Date),
	}

	var sum float64
	for _, item := range items {
		canonical := Item(item)
		sum += canonical.Amount
		record.Items = append(record.Items, canonical)
	}
	record.GrandTotal = firstFloat(doc.GrandTotal, doc.Total, doc.TotalAmount, Round2(sum))

	return record
}

// Sales maps a list of sale unions.
func Sales(docs []SaleDoc) []SaleRecord {
	records := make([]SaleRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, Sale(doc))
	}
	return records
}

// ProductDoc is the canonical product shape on the client. Stock is a
// pointer so a payload that omits it can be told apart from stock zero.
type ProductDoc struct {
	ID       string  `json:"id,omitempty"`
	MongoID  string  `json:"_id,omitempty"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	Stock    *int    `json:"stock,omitempty"`
	PhotoURL string  `json:"photoUrl,omitempty"`
}

// Key returns the product identity regardless of which id field the
// source document used.
func (p ProductDoc) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

// StockValue returns the stock count, zero when absent.
func (p ProductDoc) StockValue() int {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

// ProductList accepts a raw JSON array, or a wrapper object exposing
// the array under "products" or "data", and always yields a flat slice.
func ProductList(raw json.RawMessage) []ProductDoc {
	if len(raw) == 0 {
		return []ProductDoc{}
	}

	var direct []ProductDoc
	if err := json.Unmarshal(raw, &direct); err == nil {
		if direct == nil {
			return []ProductDoc{}
		}
		return direct
	}

	var wrapper struct {
		Products []ProductDoc `json:"products"`
		Data     []ProductDoc `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		if wrapper.Products != nil {
			return wrapper.Products
		}
		if wrapper.Data != nil {
			return wrapper.Data
		}
	}

	return []ProductDoc{}
}
