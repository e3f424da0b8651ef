package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StockMovement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID   string             `bson:"product_id" json:"productId"`
	ProductName string             `bson:"product_name" json:"productName"`
	Type        string             `bson:"type" json:"type"` // "add" or "remove"
	Quantity    int                `bson:"quantity" json:"quantity"`
	Note        string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedBy   string             `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

type StockAdjustInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Note      string `json:"note"`
}
