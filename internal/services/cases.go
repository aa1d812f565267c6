// cases.go
//
// Case editor: annotation and deletion of individual cases inside a run's
// cases map. Deletion coordinates with the summary cache before touching the
// run document.

package services

import (
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/internal/types"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// AnnotateCase sets the bug and comments fields on one case. An unknown run
// or case id is NotFound rather than a silent no-op.
func AnnotateCase(db r.QueryExecutor, runName, caseID, bug, comments string) error {
	run, err := GetRun(db, runName)
	if err != nil {
		return err
	}
	if run.Case(caseID) == nil {
		return types.ErrNotFound
	}

	_, err = r.Table(store.TableRuns).Get(runName).Update(map[string]interface{}{
		"cases": map[string]interface{}{
			caseID: map[string]interface{}{"bug": bug, "comments": comments},
		},
	}).RunWrite(db)
	if err != nil {
		return &types.StoreError{Op: "runs.update", Err: err}
	}
	return nil
}

// DeleteCase removes one case from a run: the matching summary counter is
// decremented first, then the case entry is dropped from the run document.
// A summary failure leaves the run untouched.
func DeleteCase(db r.QueryExecutor, runName, caseID string) error {
	run, err := GetRun(db, runName)
	if err != nil {
		return err
	}
	c := run.Case(caseID)
	if c == nil {
		return &types.ValidationError{Message: "not a valid case id: " + caseID}
	}

	if err := AdjustOnCaseDelete(db, runName, c.Result()); err != nil {
		return err
	}

	// Literal prevents the merge from resurrecting the removed key.
	_, err = r.Table(store.TableRuns).Get(runName).Replace(func(doc r.Term) interface{} {
		return doc.Merge(map[string]interface{}{
			"cases": r.Literal(doc.Field("cases").Without(caseID)),
		})
	}).RunWrite(db)
	if err != nil {
		return &types.StoreError{Op: "runs.replace", Err: err}
	}
	return nil
}
