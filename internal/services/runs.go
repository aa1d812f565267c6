// runs.go
//
// Run store: canonical run documents, one per globally unique run name.
// Submit and delete fan out to the product index and summary cache with
// ordered writes and no rollback; the first error surfaces to the caller.

package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/internal/types"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// SubmitRun validates and stores a run submission, then updates the product
// index and inserts the run's summary. Cases arrive as a list and are stored
// as a map keyed by a server-assigned id, so later deletion is a true removal
// with stable identifiers. Extra payload fields are persisted verbatim.
func SubmitRun(db r.QueryExecutor, runName string, payload models.Run) (string, error) {
	product, _ := payload["product"].(string)
	if strings.TrimSpace(product) == "" {
		return "", &types.ValidationError{Message: "product is required"}
	}

	rawCases, ok := payload["cases"].([]interface{})
	if !ok || len(rawCases) == 0 {
		return "", &types.ValidationError{Message: "cases must be a non-empty list"}
	}

	cases := make(map[string]interface{}, len(rawCases))
	for i, rc := range rawCases {
		c, ok := rc.(map[string]interface{})
		if !ok {
			return "", &types.ValidationError{Message: fmt.Sprintf("case %d is not an object", i)}
		}
		result, _ := c["result"].(string)
		if _, known := models.CounterField(result); !known {
			return "", &types.ValidationError{Message: fmt.Sprintf("case %d has unrecognized result code %q", i, result)}
		}
		// Server-assigned id wins over anything the caller sent.
		id := uuid.NewString()
		c["_id"] = id
		cases[id] = c
	}

	normalized := NormalizeProductName(product)

	doc := make(models.Run, len(payload)+2)
	for k, v := range payload {
		doc[k] = v
	}
	doc["run_name"] = runName
	doc["product"] = normalized
	doc["cases"] = cases

	if _, err := r.Table(store.TableRuns).Insert(doc).RunWrite(db); err != nil {
		if store.IsDuplicatePrimaryKey(err) {
			return "", &types.DuplicateKeyError{Key: runName}
		}
		return "", &types.StoreError{Op: "runs.insert", Err: err}
	}

	if err := AddRunToProduct(db, normalized, runName); err != nil {
		return "", err
	}
	if err := CreateSummary(db, runName, normalized, cases); err != nil {
		return "", err
	}

	return runName, nil
}

// GetRun fetches a run document by name.
func GetRun(db r.QueryExecutor, runName string) (models.Run, error) {
	cur, err := r.Table(store.TableRuns).Get(runName).Run(db)
	if err != nil {
		return nil, &types.StoreError{Op: "runs.get", Err: err}
	}
	defer cur.Close()

	var run models.Run
	if err := cur.One(&run); err != nil {
		if err == r.ErrEmptyResult {
			return nil, types.ErrNotFound
		}
		return nil, &types.StoreError{Op: "runs.get", Err: err}
	}
	return run, nil
}

// DeleteRun removes a run and its derived documents: product membership
// first, then the run document, then the summary. Failures leave earlier
// steps in place.
func DeleteRun(db r.QueryExecutor, runName string) error {
	run, err := GetRun(db, runName)
	if err != nil {
		return err
	}

	product, _ := run["product"].(string)
	if err := RemoveRunFromProduct(db, product, runName); err != nil {
		return err
	}

	if _, err := r.Table(store.TableRuns).Get(runName).Delete().RunWrite(db); err != nil {
		return &types.StoreError{Op: "runs.delete", Err: err}
	}

	return DeleteSummary(db, runName)
}
