package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	dbPath := flag.String("db", "lms_rest.db", "Path to the SQLite database")
	apiKey := flag.String("key", "dev-client", "API key for the development client")
	secret := flag.String("secret", "dev-secret-123", "Secret for the development client")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(
		&models.Client{}, &models.Permission{},
		&models.AllowedUser{}, &models.AllowedIP{},
	); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	reg := registry.NewClientRegistry(db)

	// Check if client already exists
	if _, err := reg.ResolveClientID(*apiKey); err == nil {
		fmt.Println("Development client already exists!")
		fmt.Printf("API Key: %s\n", *apiKey)
		fmt.Printf("API Secret: %s\n", *secret)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*secret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash secret:", err)
	}

	id, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:              *apiKey,
		APISecret:           string(hash),
		Description:         "Development client with all grants enabled",
		GTClientCredentials: true,
		GTResourceOwner:     true,
		GTAuthCode:          true,
		GTImplicit:          true,
		Permissions: []registry.PermissionEntry{
			{Pattern: "/api/v1/news/pdnews", Verb: "GET"},
			{Pattern: "/api/v1/courses/:ref_id", Verb: "GET"},
			{Pattern: "/api/v1/search", Verb: "GET"},
		},
	})
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Println("✓ Development REST client created!")
	fmt.Printf("Client ID: %d\n", id)
	fmt.Printf("API Key: %s\n", *apiKey)
	fmt.Printf("API Secret: %s\n", *secret)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:8080/oauth/token \\\n")
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", *apiKey)
	fmt.Printf("  -d 'client_secret=%s'\n", *secret)
}
