package config

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client                  *mongo.Client
	UserCollection          *mongo.Collection
	CustomerCollection      *mongo.Collection
	ProductCollection       *mongo.Collection
	SaleCollection          *mongo.Collection
	ReturnCollection        *mongo.Collection
	StockMovementCollection *mongo.Collection
	ZoneCollection          *mongo.Collection
	ProvinceCollection      *mongo.Collection
)

func ConnectDatabase() {
	client, err := mongo.NewClient(options.Client().ApplyURI(os.Getenv("MONGO_URI")))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "fieldsales"
	}

	Client = client
	UserCollection = Client.Database(dbName).Collection("users")
	CustomerCollection = Client.Database(dbName).Collection("customers")
	ProductCollection = Client.Database(dbName).Collection("products")
	SaleCollection = Client.Database(dbName).Collection("sales")
	ReturnCollection = Client.Database(dbName).Collection("returns")
	StockMovementCollection = Client.Database(dbName).Collection("stockmovements")
	ZoneCollection = Client.Database(dbName).Collection("zones")
	ProvinceCollection = Client.Database(dbName).Collection("provinces")
	log.Println("Connected to MongoDB")
}
