package data

import (
	_ "embed"
)

// SampleRunName is the run name used when seeding a development store.
const SampleRunName = "smoke-1"

//go:embed samples/smoke-run.json
var SampleRunPayload string
