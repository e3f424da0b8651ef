package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"fieldsales/cache"
	"fieldsales/config"
	"fieldsales/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// adjustStock applies a signed delta to a product's stock, clamped at
// zero, and records the movement. Returns the updated product.
func adjustStock(ctx context.Context, productID string, delta int, note string, createdBy string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID %q", productID)
	}

	var product models.Product
	err = config.ProductCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("product %s not found", productID)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	newStock := product.Stock + delta
	if newStock < 0 {
		newStock = 0
	}

	update := bson.M{"$set": bson.M{"stock": newStock, "updated_at": time.Now()}}
	if _, err := config.ProductCollection.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	product.Stock = newStock

	movementType := "add"
	quantity := delta
	if delta < 0 {
		movementType = "remove"
		quantity = -delta
	}
	movement := models.StockMovement{
		ProductID:   productID,
		ProductName: product.Name,
		Type:        movementType,
		Quantity:    quantity,
		Note:        note,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	if _, err := config.StockMovementCollection.InsertOne(ctx, movement); err != nil {
		log.Printf("failed to record stock movement for %s: %v", productID, err)
	}

	if err := cache.Products.Invalidate(ctx); err != nil {
		log.Printf("product cache invalidate failed: %v", err)
	}

	return &product, nil
}

// AddStock handles POST /stocks/add.
func AddStock(c *gin.Context) {
	stockAdjust(c, 1)
}

// RemoveStock handles POST /stocks/remove.
func RemoveStock(c *gin.Context) {
	stockAdjust(c, -1)
}

func stockAdjust(c *gin.Context, sign int) {
	var input models.StockAdjustInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createdBy, _ := c.Get("userID")
	userID, _ := createdBy.(string)

	product, err := adjustStock(ctx, input.ProductID, sign*input.Quantity, input.Note, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListStockMovements returns the movement ledger, newest first.
func ListStockMovements(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if productID := c.Query("productId"); productID != "" {
		filter["product_id"] = productID
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := config.StockMovementCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock movements"})
		return
	}
	defer cursor.Close(ctx)

	movements := []models.StockMovement{}
	if err := cursor.All(ctx, &movements); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock movements"})
		return
	}

	c.JSON(http.StatusOK, movements)
}
