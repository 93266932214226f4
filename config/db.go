// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use the Docker service name as fallback in development.
	// Settlements run multi-document transactions, so the deployment must
	// be a replica set even locally.
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017/?replicaSet=rs0"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// DBName returns the configured database name
func DBName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "tasknest"
	}
	return dbName
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DBName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DBName())

	// Ensure collections exist
	collections := []string{
		"users", "settings", "tasks", "boosters",
		"deposits", "withdrawals", "referrals",
		"taskSubmissions", "taskRequests", "boosterPurchases",
		"revenue_transactions", "autopilot_runs", "notifications",
	}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	// Email index for users collection
	userColl := db.Collection("users")
	emailIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := userColl.Indexes().CreateOne(ctx, emailIndexModel)
	if err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	// Pending-request listings filter on status; settlements look up by id
	for _, collName := range []string{"deposits", "withdrawals", "referrals", "taskSubmissions", "taskRequests", "boosterPurchases"} {
		coll := db.Collection(collName)
		statusIndexModel := mongo.IndexModel{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: 1}},
		}
		_, err := coll.Indexes().CreateOne(ctx, statusIndexModel)
		if err != nil {
			log.Printf("Error creating status index for %s: %v", collName, err)
		}
	}

	// Revenue rows are queried by type and by originating request
	revenueColl := db.Collection("revenue_transactions")
	for _, model := range []mongo.IndexModel{
		{Keys: bson.D{{Key: "transactionType", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "relatedDocId", Value: 1}}},
	} {
		if _, err := revenueColl.Indexes().CreateOne(ctx, model); err != nil {
			log.Printf("Error creating revenue index: %v", err)
		}
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
