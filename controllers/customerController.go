package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fieldsales/config"
	"fieldsales/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListCustomers returns all customers, newest first.
func ListCustomers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := config.CustomerCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customers"})
		return
	}
	defer cursor.Close(ctx)

	customers := []models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode customers"})
		return
	}

	c.JSON(http.StatusOK, customers)
}

// nextCustomerCode scans existing codes and returns max+1, zero padded to
// four digits. Codes that do not parse as numbers are skipped.
func nextCustomerCode(ctx context.Context) (string, error) {
	cursor, err := config.CustomerCollection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"customer_code": 1}))
	if err != nil {
		return "", err
	}
	defer cursor.Close(ctx)

	max := 0
	for cursor.Next(ctx) {
		var doc struct {
			CustomerCode string `bson:"customer_code"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		n, err := strconv.Atoi(doc.CustomerCode)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if err := cursor.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%04d", max+1), nil
}

// AddCustomer creates a customer. When the client did not assign a
// customer code, the next sequential one is assigned here.
func AddCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if customer.CustomerCode == "" {
		code, err := nextCustomerCode(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign customer code"})
			return
		}
		customer.CustomerCode = code
	}
	if customer.MedRepName == "" {
		if name, ok := c.Get("userName"); ok {
			customer.MedRepName, _ = name.(string)
		}
	}
	customer.ID = primitive.NilObjectID
	customer.CreatedAt = time.Now()

	result, err := config.CustomerCollection.InsertOne(ctx, customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}
	customer.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, customer)
}

// ListZones returns the zone lookup list.
func ListZones(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := config.ZoneCollection.Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve zones"})
		return
	}
	defer cursor.Close(ctx)

	zones := []models.Zone{}
	if err := cursor.All(ctx, &zones); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode zones"})
		return
	}

	c.JSON(http.StatusOK, zones)
}

// ListProvinces returns the province lookup list, optionally filtered by
// zone id.
func ListProvinces(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if zoneID := c.Query("zoneId"); zoneID != "" {
		filter["zoneid"] = zoneID
	}

	cursor, err := config.ProvinceCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve provinces"})
		return
	}
	defer cursor.Close(ctx)

	provinces := []models.Province{}
	if err := cursor.All(ctx, &provinces); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode provinces"})
		return
	}

	c.JSON(http.StatusOK, provinces)
}
