// main.go
//
// Standalone health probe for the zelda run registry. Connects to the
// document store directly and prints the health report as JSON.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/services"
	"github.com/zeldalab/zelda/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the document store
	sess, err := store.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	defer store.Close(sess)

	// Perform health check
	result := services.HealthCheck(cfg, sess)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}
