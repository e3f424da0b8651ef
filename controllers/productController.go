package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"fieldsales/cache"
	"fieldsales/config"
	"fieldsales/models"
	"fieldsales/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productCacheTTL = 30 * time.Second

// GetAllProducts returns the full product list, served from the cache
// when warm.
func GetAllProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cached, ok, err := cache.Products.Get(ctx); err == nil && ok {
		c.JSON(http.StatusOK, cached)
		return
	} else if err != nil {
		log.Printf("product cache read failed: %v", err)
	}

	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := config.ProductCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode products"})
		return
	}

	if err := cache.Products.Set(ctx, products, productCacheTTL); err != nil {
		log.Printf("product cache write failed: %v", err)
	}

	c.JSON(http.StatusOK, products)
}

// AddProduct creates a product.
func AddProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if product.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock cannot be negative"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	product.ID = primitive.NilObjectID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	result, err := config.ProductCollection.InsertOne(ctx, product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	if err := cache.Products.Invalidate(ctx); err != nil {
		log.Printf("product cache invalidate failed: %v", err)
	}

	c.JSON(http.StatusCreated, product)
}

// EditProduct applies a partial update. Omitted stock must not be zeroed.
func EditProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var input models.UpdateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Name != "" {
		set["name"] = input.Name
	}
	if input.Unit != "" {
		set["unit"] = input.Unit
	}
	if input.Price != nil {
		set["price"] = *input.Price
	}
	if input.Stock != nil {
		stock := *input.Stock
		if stock < 0 {
			stock = 0
		}
		set["stock"] = stock
	}
	if input.PhotoURL != "" {
		set["photo_url"] = input.PhotoURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := config.ProductCollection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := cache.Products.Invalidate(ctx); err != nil {
		log.Printf("product cache invalidate failed: %v", err)
	}

	var product models.Product
	if err := config.ProductCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// UploadProductPhoto stores a compressed product photo in the object
// bucket and records its URL on the product.
func UploadProductPhoto(c *gin.Context) {
	productID := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}

	url, err := utils.SaveProductPhoto(file, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"photo_url": url, "updated_at": time.Now()}}
	result, err := config.ProductCollection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := cache.Products.Invalidate(ctx); err != nil {
		log.Printf("product cache invalidate failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}

// GetProduct returns a single product by id.
func GetProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var product models.Product
	err = config.ProductCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}
