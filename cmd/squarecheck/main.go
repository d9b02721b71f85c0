// Command squarecheck verifies the Square configuration: it fetches the
// configured location and the appointment services, and reports which
// catalog services have a Square service variation mapped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/config"
	"github.com/recoverykneads/booking/internal/logger"
	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/square"
)

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "overall timeout for the Square calls")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(false, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	code := run(cfg, zl, *timeout)
	_ = zl.Sync()
	os.Exit(code)
}

// run returns 1 when Square cannot be reached and 2 when a catalog service
// has no usable variation.
func run(cfg config.Config, zl *zap.Logger, timeout time.Duration) int {
	if !cfg.Square.Configured() {
		zl.Error("square not configured", zap.Error(config.ErrMissingSquare))
		return 1
	}
	baseURL := cfg.Square.BaseURL
	if baseURL == "" {
		baseURL = square.BaseURLFor(cfg.Square.Environment)
	}
	client := square.NewClient(baseURL, cfg.Square.AccessToken, cfg.Square.LocationID, zl)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	loc, err := client.RetrieveLocation(ctx)
	if err != nil {
		zl.Error("retrieve location failed", zap.Error(err))
		return 1
	}
	fmt.Printf("location %s: %s (%s, %s)\n", loc.ID, loc.Name, loc.Status, loc.Timezone)

	services, err := client.ListServices(ctx)
	if err != nil {
		zl.Error("list services failed", zap.Error(err))
		return 1
	}
	offered := make(map[string]square.CatalogService, len(services))
	for _, s := range services {
		offered[s.VariationID] = s
		fmt.Printf("square service %-40s variation=%s %d min\n", s.Name, s.VariationID, s.DurationMinutes)
	}

	missing := 0
	for _, svc := range model.Services() {
		variation, ok := cfg.Square.ServiceVariations[svc.ID]
		switch {
		case !ok:
			missing++
			fmt.Printf("%-16s not mapped\n", svc.ID)
		case offered[variation].VariationID == "":
			missing++
			fmt.Printf("%-16s mapped to unknown variation %s\n", svc.ID, variation)
		default:
			fmt.Printf("%-16s -> %s\n", svc.ID, offered[variation].Name)
		}
	}
	if missing > 0 {
		return 2
	}
	return 0
}
