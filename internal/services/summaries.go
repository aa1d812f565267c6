// summaries.go
//
// Summary cache: one runssum document per run with pass/fail/N-A counters.
// Counters are tallied once at submission and decremented in place when
// individual cases are deleted, never recomputed.

package services

import (
	"fmt"

	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/internal/types"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// TallySummary counts the case results of a run into a fresh summary.
// Result codes are validated at submission, so every case lands in a bucket.
func TallySummary(runName, product string, cases map[string]interface{}) models.RunSummary {
	sum := models.RunSummary{RunName: runName, Product: product}
	for _, rc := range cases {
		c, _ := rc.(map[string]interface{})
		switch models.Case(c).Result() {
		case models.ResultPass:
			sum.PassCount++
		case models.ResultFail:
			sum.FailCount++
		case models.ResultNA:
			sum.NACount++
		}
	}
	return sum
}

// CreateSummary inserts the summary document for a newly submitted run.
func CreateSummary(db r.QueryExecutor, runName, product string, cases map[string]interface{}) error {
	if _, err := r.Table(store.TableSummaries).Insert(TallySummary(runName, product, cases)).RunWrite(db); err != nil {
		return &types.StoreError{Op: "runssum.insert", Err: err}
	}
	return nil
}

// AdjustOnCaseDelete decrements the counter matching the deleted case's
// result code. The decrement is a single atomic document update.
func AdjustOnCaseDelete(db r.QueryExecutor, runName, result string) error {
	field, ok := models.CounterField(result)
	if !ok {
		return &types.ValidationError{Message: fmt.Sprintf("unrecognized result code %q", result)}
	}

	resp, err := r.Table(store.TableSummaries).Get(runName).Update(map[string]interface{}{
		field: r.Row.Field(field).Sub(1),
	}).RunWrite(db)
	if err != nil {
		return &types.StoreError{Op: "runssum.update", Err: err}
	}
	if resp.Skipped > 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteSummary removes the summary document; missing documents are a no-op.
func DeleteSummary(db r.QueryExecutor, runName string) error {
	if _, err := r.Table(store.TableSummaries).Get(runName).Delete().RunWrite(db); err != nil {
		return &types.StoreError{Op: "runssum.delete", Err: err}
	}
	return nil
}

// ListSummariesForProduct returns all run summaries belonging to the product
// named by rawName (normalized first), via the product secondary index.
func ListSummariesForProduct(db r.QueryExecutor, rawName string) ([]models.RunSummary, error) {
	name := NormalizeProductName(rawName)

	cur, err := r.Table(store.TableSummaries).GetAllByIndex(store.IndexSummaryProduct, name).Run(db)
	if err != nil {
		return nil, &types.StoreError{Op: "runssum.list", Err: err}
	}
	defer cur.Close()

	var summaries []models.RunSummary
	if err := cur.All(&summaries); err != nil {
		return nil, &types.StoreError{Op: "runssum.list", Err: err}
	}
	if summaries == nil {
		summaries = []models.RunSummary{}
	}
	return summaries, nil
}
