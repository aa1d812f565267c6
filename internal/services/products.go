// products.go
//
// Product index: one document per normalized product name holding the set of
// run names that belong to it. Membership changes use the store's atomic set
// operators so concurrent submissions cannot lose updates.

package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/internal/types"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

var separatorReplacer = strings.NewReplacer("-", " ", "_", " ")

// NormalizeProductName converts a raw product string into its canonical
// display form: separators (- and _) become spaces, each token gets an
// upper-cased first rune with the rest preserved, tokens joined by single
// spaces. Idempotent, so normalized names pass through unchanged.
func NormalizeProductName(raw string) string {
	tokens := strings.Fields(separatorReplacer.Replace(raw))
	for i, tok := range tokens {
		first, size := utf8.DecodeRuneInString(tok)
		tokens[i] = string(unicode.ToUpper(first)) + tok[size:]
	}
	return strings.Join(tokens, " ")
}

// AddRunToProduct records runName under the product, creating the product
// document on first submission. A single upsert with a conflict function
// keeps the membership update atomic.
func AddRunToProduct(db r.QueryExecutor, productName, runName string) error {
	doc := models.Product{Name: productName, Runs: []string{runName}}
	_, err := r.Table(store.TableProducts).Insert(doc, r.InsertOpts{
		Conflict: func(id, oldDoc, newDoc r.Term) interface{} {
			return oldDoc.Merge(map[string]interface{}{
				"runs": oldDoc.Field("runs").SetInsert(runName),
			})
		},
	}).RunWrite(db)
	if err != nil {
		return &types.StoreError{Op: "products.upsert", Err: err}
	}
	return nil
}

// RemoveRunFromProduct removes runName from the product's run set and deletes
// the product document when the set empties. Removing a name that is not a
// member succeeds as a no-op; a missing product document is NotFound. The
// whole membership-or-delete decision runs as one atomic replace.
func RemoveRunFromProduct(db r.QueryExecutor, productName, runName string) error {
	resp, err := r.Table(store.TableProducts).Get(productName).Replace(func(p r.Term) interface{} {
		remaining := p.Field("runs").SetDifference([]string{runName})
		return r.Branch(p.Eq(nil), nil,
			r.Branch(remaining.Count().Eq(0), nil,
				p.Merge(map[string]interface{}{"runs": remaining})))
	}).RunWrite(db)
	if err != nil {
		return &types.StoreError{Op: "products.replace", Err: err}
	}
	if resp.Skipped > 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetProduct looks up a product by raw name, normalizing first.
func GetProduct(db r.QueryExecutor, rawName string) (models.Product, error) {
	name := NormalizeProductName(rawName)

	cur, err := r.Table(store.TableProducts).Get(name).Run(db)
	if err != nil {
		return models.Product{}, &types.StoreError{Op: "products.get", Err: err}
	}
	defer cur.Close()

	var product models.Product
	if err := cur.One(&product); err != nil {
		if err == r.ErrEmptyResult {
			return models.Product{}, types.ErrNotFound
		}
		return models.Product{}, &types.StoreError{Op: "products.get", Err: err}
	}
	return product, nil
}

// ListProducts returns all product documents ordered by name.
func ListProducts(db r.QueryExecutor) ([]models.Product, error) {
	cur, err := r.Table(store.TableProducts).OrderBy("name").Run(db)
	if err != nil {
		return nil, &types.StoreError{Op: "products.list", Err: err}
	}
	defer cur.Close()

	var products []models.Product
	if err := cur.All(&products); err != nil {
		return nil, &types.StoreError{Op: "products.list", Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
