package models

// Product groups runs under a normalized display name. The runs field is
// treated as a set; membership changes go through atomic set operations on
// the store, never read-modify-write.
type Product struct {
	Name string   `rethinkdb:"name" json:"name"`
	Runs []string `rethinkdb:"runs" json:"runs"`
}
