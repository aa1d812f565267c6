// data.go
//
// Payload builders shared by the HTTP-level tests.

package helpers

// RunPayload builds a submit body for the given product with one case per
// result code.
func RunPayload(product string, results ...string) map[string]interface{} {
	cases := make([]interface{}, 0, len(results))
	for _, result := range results {
		cases = append(cases, map[string]interface{}{"result": result})
	}
	return map[string]interface{}{
		"product": product,
		"cases":   cases,
	}
}
