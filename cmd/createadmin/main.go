// Command createadmin adds an admin user to the database. Admins are
// never created through the registration flow.
package main

import (
	"flag"
	"log"

	"github.com/cfletch1/portfolio-service/internal/config"
	"github.com/cfletch1/portfolio-service/internal/database"
	"github.com/cfletch1/portfolio-service/internal/models"
)

func main() {
	email := flag.String("email", "", "email address of the admin user")
	flag.Parse()

	if *email == "" {
		log.Fatal("usage: createadmin -email admin@example.com")
	}

	cfg := config.Load()
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	user := &models.User{Email: *email, Role: models.RoleAdmin}
	if err := db.CreateUser(user); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Created new admin user %s (%s)", user.Email, user.ID)
}
