package models

// Run is a stored run document. Besides the fields the service owns
// (run_name, product, cases) a run carries whatever extra fields the
// submitter included, so it is kept schemaless.
type Run map[string]interface{}

// Case is one test case entry inside a run's cases map, keyed by its id.
// Known fields are result, bug and comments; extra submitter fields are
// persisted verbatim.
type Case map[string]interface{}

// Result codes as submitted by clients.
const (
	ResultPass = "0"
	ResultFail = "1"
	ResultNA   = "2"
)

// CounterField maps a result code to its runssum counter field.
// The second return is false for unrecognized codes.
func CounterField(result string) (string, bool) {
	switch result {
	case ResultPass:
		return "pass_count", true
	case ResultFail:
		return "fail_count", true
	case ResultNA:
		return "na_count", true
	}
	return "", false
}

// Cases returns the cases map of a run, or nil if absent or malformed.
func (r Run) Cases() map[string]interface{} {
	cases, _ := r["cases"].(map[string]interface{})
	return cases
}

// Case returns the case with the given id, or nil if absent.
func (r Run) Case(caseID string) Case {
	c, _ := r.Cases()[caseID].(map[string]interface{})
	return Case(c)
}

// Result returns the case's result code.
func (c Case) Result() string {
	result, _ := c["result"].(string)
	return result
}
