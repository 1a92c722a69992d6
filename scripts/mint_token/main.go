package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"caffinity/internal/auth"

	"github.com/joho/godotenv"
)

// Prints a signed access token for local testing, using JWT_SECRET and
// JWT_ISSUER from the environment or .env.
func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "user-1", "user id")
	role := flag.String("role", auth.RoleCustomer, "customer or operator")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "caffinity"
	}

	token, err := auth.MintAccessToken(auth.Config{
		Secret: os.Getenv("JWT_SECRET"),
		Issuer: issuer,
		TTL:    *ttl,
	}, time.Now(), *userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to mint token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
