package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldsales/config"
	"fieldsales/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CheckLowStock runs daily from the scheduler. It scans for products at or
// below the configured stock threshold and emails the admin a summary.
func CheckLowStock() {
	log.Println("CheckLowStock started")

	threshold, err := strconv.Atoi(os.Getenv("LOW_STOCK_THRESHOLD"))
	if err != nil || threshold < 0 {
		threshold = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := config.ProductCollection.Find(ctx, bson.M{"stock": bson.M{"$lte": threshold}})
	if err != nil {
		log.Printf("CheckLowStock: failed to query products: %v", err)
		return
	}
	defer cursor.Close(ctx)

	var low []models.Product
	if err := cursor.All(ctx, &low); err != nil {
		log.Printf("CheckLowStock: failed to decode products: %v", err)
		return
	}

	if len(low) == 0 {
		log.Println("CheckLowStock: no products below threshold")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Products at or below stock threshold (%d):\n\n", threshold)
	for _, p := range low {
		fmt.Fprintf(&b, "- %s: %d %s remaining\n", p.Name, p.Stock, p.Unit)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		log.Println("CheckLowStock: ADMIN_EMAIL not set, skipping email")
		return
	}

	if err := SendEmail(adminEmail, "Low stock alert", b.String()); err != nil {
		log.Printf("CheckLowStock: failed to send email: %v", err)
		return
	}

	log.Printf("CheckLowStock completed, %d products reported", len(low))
}
