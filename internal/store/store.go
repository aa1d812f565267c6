// store.go
//
// RethinkDB session management for the zelda run registry.

package store

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zeldalab/zelda/internal/config"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// Collection names. Each table's primary key doubles as the unique index the
// registry relies on (run_name for runs and runssum, name for products).
const (
	TableRuns      = "runs"
	TableProducts  = "products"
	TableSummaries = "runssum"

	// IndexSummaryProduct is the secondary index on runssum used to list
	// summaries for a product.
	IndexSummaryProduct = "product"
)

// Connect establishes a session against the configured RethinkDB instance.
// The session pool is safe for concurrent use by request handlers.
func Connect(cfg *config.Config) (*r.Session, error) {
	opts := r.ConnectOpts{
		Address:    cfg.DBAddress(),
		Database:   cfg.DBName,
		InitialCap: 2,
		MaxOpen:    cfg.DBConnectionLimit,
		Timeout:    5 * time.Second,
	}
	if cfg.DBUser != "" {
		opts.Username = cfg.DBUser
	}
	if cfg.DBPassword != "" {
		opts.Password = cfg.DBPassword
	}

	sess, err := r.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("rethinkdb connect failed addr=%s: %w", cfg.DBAddress(), err)
	}

	log.Printf("Connected to document store: %s (db=%s)", cfg.DBAddress(), cfg.DBName)

	return sess, nil
}

// EnsureDatabase creates the configured database if absent.
func EnsureDatabase(sess *r.Session, name string) error {
	cur, err := r.DBList().Run(sess)
	if err != nil {
		return err
	}
	defer cur.Close()

	var dbs []string
	if err := cur.All(&dbs); err != nil {
		return err
	}
	for _, db := range dbs {
		if db == name {
			return nil
		}
	}
	if _, err := r.DBCreate(name).RunWrite(sess); err != nil && !alreadyExists(err) {
		return err
	}
	return nil
}

// EnsureTables creates the registry tables and indexes. Idempotent; safe to
// run on every startup and when two instances start at once.
func EnsureTables(sess *r.Session) error {
	tables := []struct {
		name string
		pk   string
	}{
		{TableRuns, "run_name"},
		{TableProducts, "name"},
		{TableSummaries, "run_name"},
	}

	for _, tbl := range tables {
		_, err := r.TableCreate(tbl.name, r.TableCreateOpts{PrimaryKey: tbl.pk}).RunWrite(sess)
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("create table %s: %w", tbl.name, err)
		}
	}

	_, err := r.Table(TableSummaries).IndexCreate(IndexSummaryProduct).RunWrite(sess)
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("create index %s.%s: %w", TableSummaries, IndexSummaryProduct, err)
	}
	cur, err := r.Table(TableSummaries).IndexWait(IndexSummaryProduct).Run(sess)
	if err != nil {
		return fmt.Errorf("wait index %s.%s: %w", TableSummaries, IndexSummaryProduct, err)
	}
	return cur.Close()
}

// Ping verifies the session by evaluating a trivial expression.
func Ping(db r.QueryExecutor) error {
	cur, err := r.Expr("pong").Run(db)
	if err != nil {
		return err
	}
	return cur.Close()
}

// Close shuts down the session pool.
func Close(sess *r.Session) error {
	if sess == nil {
		return nil
	}
	return sess.Close()
}

// IsDuplicatePrimaryKey reports whether an insert failed on a primary key
// collision.
func IsDuplicatePrimaryKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate primary key")
}

func alreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
