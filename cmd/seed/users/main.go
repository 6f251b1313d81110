package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopworks/storefront/internal/config"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	repo := repository.NewMongoUserRepository(db)

	users := []domain.UserAccount{
		{Email: "owner@storefront.local", Name: "Store Owner", Role: domain.RoleOwner, ErpUser: true},
		{Email: "admin@storefront.local", Name: "Store Admin", Role: domain.RoleAdmin, ErpUser: true},
		{Email: "manager@storefront.local", Name: "Store Manager", Role: domain.RoleManager, ErpUser: true},
		{
			Email: "staff@storefront.local", Name: "Branch Staff", Role: domain.RoleStaff,
			ErpUser:      true,
			BranchAccess: map[string]bool{"jakarta": true, "bandung": true, "surabaya": false},
		},
		{Email: "customer@storefront.local", Name: "", Role: domain.RoleCustomer},
	}

	seeded := 0
	for i := range users {
		u := users[i]

		// Idempotent: skip accounts that already exist.
		_, err := repo.GetByEmail(ctx, u.Email)
		if err == nil {
			log.Printf("Skipping %s (exists)", u.Email)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("Failed to check %s: %v", u.Email, err)
		}

		if err := repo.Create(ctx, &u); err != nil {
			log.Fatalf("Failed to seed %s: %v", u.Email, err)
		}
		log.Printf("Seeded %s (%s)", u.Email, u.Role)
		seeded++
	}

	log.Printf("Done, %d users seeded", seeded)
}
