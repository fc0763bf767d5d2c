// Command admintoken prints a signed bearer token for the admin API or for
// the payment collaborator (-role payment).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Domenick1991/resortbooking/config"
	"github.com/Domenick1991/resortbooking/internal/auth"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	role := flag.String("role", auth.RoleAdmin, "token role: admin or payment")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *role != auth.RoleAdmin && *role != auth.RolePayment {
		log.Fatalf("unknown role %q", *role)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is required")
	}

	token, err := auth.New(cfg.Auth.JWTSecret, *ttl).GenerateToken(*subject, *role)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
