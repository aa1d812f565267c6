package main

import (
	"fmt"
	"log"

	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/store"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	sess, err := store.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close(sess)

	// Dump each registry table to see what the service persisted
	tables := []string{store.TableRuns, store.TableProducts, store.TableSummaries}
	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)

		cur, err := r.Table(table).Run(sess)
		if err != nil {
			log.Fatal(err)
		}

		var docs []map[string]interface{}
		if err := cur.All(&docs); err != nil {
			cur.Close()
			log.Fatal(err)
		}
		cur.Close()

		fmt.Printf("%d document(s)\n", len(docs))
		for _, doc := range docs {
			fmt.Printf("%v\n", doc)
		}
	}
}
