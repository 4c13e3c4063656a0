// cmd/hashpw/main.go
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/auth"
)

// hashpw prints the bcrypt hash the API would store for a password, using the
// configured cost and strength rules. Handy for seeding accounts by hand.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: hashpw <password>")
		os.Exit(2)
	}
	password := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	passwords := auth.NewPasswordManager(cfg)
	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Fatal("Password rejected")
	}
	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.WithError(err).Fatal("Hash verification failed")
	}

	fmt.Println(hash)
}
