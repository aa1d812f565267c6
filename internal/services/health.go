package services

import (
	"fmt"
	"log"

	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/store"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck verifies connectivity to the document store.
func HealthCheck(cfg *config.Config, db r.QueryExecutor) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	if err := store.Ping(db); err != nil {
		result.Status = "unhealthy"
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
		log.Printf("Health check failed - database ping: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_addr"] = cfg.DBAddress()
		result.Details["database_name"] = cfg.DBName
	}

	return result
}
