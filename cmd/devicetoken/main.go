// cmd/devicetoken signs a bearer token for a POS device.
// Usage: go run ./cmd/devicetoken -device caja-1 -role cashier [-ttl 720h]
package main

import (
	"flag"
	"fmt"
	"os"

	"posync/internal/config"
	"posync/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	device := flag.String("device", cfg.DeviceID, "device id")
	store := flag.String("store", cfg.StoreID, "store the token is bound to (empty: any)")
	role := flag.String("role", middleware.RoleWaiter, "waiter | kitchen | cashier | admin")
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 never expires")
	flag.Parse()

	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	tok, err := middleware.IssueToken(cfg.JWTSecret, middleware.DeviceClaims{
		DeviceID: *device,
		StoreID:  *store,
		Role:     *role,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
