package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fieldsales/config"
	"fieldsales/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateSale records a sale and decrements stock for each line item.
// Totals are recorded as sent by the client; the sale document is never
// amended afterwards, returns are separate records.
func CreateSale(c *gin.Context) {
	var sale models.Sale
	if err := c.ShouldBindJSON(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(sale.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sale must contain at least one item"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, _ := c.Get("userID")
	sale.MedRepID, _ = userID.(string)
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = fmt.Sprintf("INV-%d", time.Now().UnixMilli())
	}
	sale.ID = primitive.NilObjectID
	sale.CreatedAt = time.Now()

	result, err := config.SaleCollection.InsertOne(ctx, sale)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sale"})
		return
	}
	sale.ID = result.InsertedID.(primitive.ObjectID)

	for _, item := range sale.Items {
		note := fmt.Sprintf("sale %s", sale.InvoiceNumber)
		if _, err := adjustStock(ctx, item.ProductID, -item.SalesQty, note, sale.MedRepID); err != nil {
			// The sale record stands; stock reconciliation is reported,
			// not rolled back.
			c.JSON(http.StatusCreated, gin.H{"sale": sale, "warning": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, sale)
}

// GetMySales returns the authenticated rep's sales, newest first.
func GetMySales(c *gin.Context) {
	userID, _ := c.Get("userID")
	repID, _ := userID.(string)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := config.SaleCollection.Find(ctx, bson.M{"med_rep_id": repID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sales"})
		return
	}
	defer cursor.Close(ctx)

	sales := []models.Sale{}
	if err := cursor.All(ctx, &sales); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode sales"})
		return
	}

	c.JSON(http.StatusOK, sales)
}

// CreateReturn records a return and restores stock for each item. The
// original sale document is not touched.
func CreateReturn(c *gin.Context) {
	var ret models.ReturnOrder
	if err := c.ShouldBindJSON(&ret); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(ret.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Return must contain at least one item"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, _ := c.Get("userID")
	ret.MedRepID, _ = userID.(string)
	ret.ID = primitive.NilObjectID
	ret.CreatedAt = time.Now()

	result, err := config.ReturnCollection.InsertOne(ctx, ret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create return"})
		return
	}
	ret.ID = result.InsertedID.(primitive.ObjectID)

	for _, item := range ret.Items {
		note := fmt.Sprintf("return %s", ret.ID.Hex())
		if _, err := adjustStock(ctx, item.ProductID, item.SalesQty, note, ret.MedRepID); err != nil {
			c.JSON(http.StatusCreated, gin.H{"return": ret, "warning": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, ret)
}

// GetMyReturns returns the authenticated rep's returns, newest first.
func GetMyReturns(c *gin.Context) {
	userID, _ := c.Get("userID")
	repID, _ := userID.(string)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := config.ReturnCollection.Find(ctx, bson.M{"med_rep_id": repID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve returns"})
		return
	}
	defer cursor.Close(ctx)

	returns := []models.ReturnOrder{}
	if err := cursor.All(ctx, &returns); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode returns"})
		return
	}

	c.JSON(http.StatusOK, returns)
}
