// Status watch follows the dashboard API websocket and prints every reload result.
// Depends on the dashboard API being online.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/api"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/statusclient"
	"github.com/rs/zerolog"
)

func main() {
	asJSON := flag.Bool("json", false, "print raw status messages")
	flag.Parse()

	// Set the host:port from env var DASHBOARD_API_HOST
	host := os.Getenv("DASHBOARD_API_HOST")
	if host == "" {
		host = "localhost:9040"
	}

	appLog := logger.NewWithWriter(os.Stderr, zerolog.InfoLevel, "console", "")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := statusclient.Listen(ctx, host, statusclient.DefaultOptions(), appLog, func(p api.StatusPayload) {
		if *asJSON {
			data, _ := json.Marshal(p)
			fmt.Println(string(data))
			return
		}
		fmt.Printf("[%s] %s\n", p.Kind, p.Message)
	})
	if err != nil {
		log.Fatalf("Status stream ended: %v", err)
	}
}
