package models

// RunSummary holds the precomputed result counters for one run. Counters are
// tallied once at submission and only ever decremented afterwards.
type RunSummary struct {
	RunName   string `rethinkdb:"run_name" json:"run_name"`
	Product   string `rethinkdb:"product" json:"product"`
	PassCount int    `rethinkdb:"pass_count" json:"pass_count"`
	FailCount int    `rethinkdb:"fail_count" json:"fail_count"`
	NACount   int    `rethinkdb:"na_count" json:"na_count"`
}
