package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SaleItem struct {
	ProductID      string  `bson:"product_id" json:"productId"`
	ProductName    string  `bson:"product_name" json:"productName"`
	SalesQty       int     `bson:"sales_qty" json:"salesQty"`
	SellingPrice   float64 `bson:"selling_price" json:"sellingPrice"`
	Amount         float64 `bson:"amount" json:"amount"`
	BonusQty       int     `bson:"bonus_qty" json:"bonusQty"`
	DiscountAmount float64 `bson:"discount_amount" json:"discountAmount"`
	LossAmount     float64 `bson:"loss_amount" json:"lossAmount"`
}

type Sale struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	InvoiceNumber string             `bson:"invoice_number" json:"invoiceNumber"`
	CustomerID    string             `bson:"customer_id" json:"customerId" binding:"required"`
	CustomerName  string             `bson:"customer_name" json:"customerName"`
	MedRepID      string             `bson:"med_rep_id" json:"medRepId"`
	Items         []SaleItem         `bson:"items" json:"items" binding:"required"`
	GrandTotal    float64            `bson:"grand_total" json:"grandTotal"`
	Paid          float64            `bson:"paid" json:"paid"`
	Due           float64            `bson:"due" json:"due"`
	PaymentStatus string             `bson:"payment_status" json:"paymentStatus"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// ReturnOrder undoes the stock effect of a prior sale. A separate
// record, never an amendment of the sale itself.
type ReturnOrder struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CustomerID   string             `bson:"customer_id" json:"customerId"`
	CustomerName string             `bson:"customer_name" json:"customerName"`
	MedRepID     string             `bson:"med_rep_id" json:"medRepId"`
	Items        []SaleItem         `bson:"items" json:"items" binding:"required"`
	Remark       string             `bson:"remark,omitempty" json:"remark,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
