// integration_test.go
//
// End-to-end exercises of the HTTP API against a real RethinkDB started via
// testcontainers. Skipped with -short.

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/handlers"
	"github.com/zeldalab/zelda/internal/middleware"
	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/tests/helpers"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

var testApp *fiber.App

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := helpers.StartRethinkDB(ctx)
	if err != nil {
		log.Fatalf("starting RethinkDB container: %v", err)
	}

	sess, err := connect(container.Addr)
	if err != nil {
		_ = container.Terminate(ctx)
		log.Fatalf("connecting to RethinkDB: %v", err)
	}

	testApp = newApp(sess)

	code := m.Run()

	_ = store.Close(sess)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func connect(addr string) (*r.Session, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		DBHost:            host,
		DBPort:            port,
		DBName:            "zelda_test",
		DBConnectionLimit: 5,
	}

	sess, err := store.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDatabase(sess, cfg.DBName); err != nil {
		return nil, err
	}
	if err := store.EnsureTables(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// newApp mirrors the route wiring of cmd/server.
func newApp(sess *r.Session) *fiber.App {
	app := fiber.New()

	zelda := app.Group("/zelda")
	zelda.Use(middleware.VersionMiddleware())

	runHandler := &handlers.RunHandler{DB: sess}
	productHandler := &handlers.ProductHandler{DB: sess}
	caseHandler := &handlers.CaseHandler{DB: sess}

	zelda.Put("/runs/:run_name", runHandler.SubmitRun)
	zelda.Get("/runs/:run_name", runHandler.GetRun)
	zelda.Delete("/runs/:run_name", runHandler.DeleteRun)

	zelda.Get("/products", productHandler.ListProducts)
	zelda.Get("/products/:product_name", productHandler.GetProduct)
	zelda.Get("/products/:product_name/runs/summaries", productHandler.ListSummaries)

	zelda.Delete("/runs/:run_name/cases/:case_id", caseHandler.DeleteCase)
	zelda.Post("/runs/:run_name/cases/:case_id/update", caseHandler.UpdateCase)

	return app
}

func requireApp(t *testing.T) {
	t.Helper()
	if testApp == nil {
		t.Skip("skipping integration test in short mode")
	}
}

func submitRun(t *testing.T, runName string, payload map[string]interface{}) {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PUT", "/zelda/runs/"+runName, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := testApp.Test(req, -1)
	if err != nil {
		t.Fatalf("submit %s: %v", runName, err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
}

func getRun(t *testing.T, runName string) map[string]interface{} {
	t.Helper()
	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/runs/"+runName, nil), -1)
	if err != nil {
		t.Fatalf("get run %s: %v", runName, err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var run map[string]interface{}
	helpers.ParseJSON(t, resp, &run)
	return run
}

func getSummaries(t *testing.T, product string) []models.RunSummary {
	t.Helper()
	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/products/"+product+"/runs/summaries", nil), -1)
	if err != nil {
		t.Fatalf("get summaries for %s: %v", product, err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var summaries []models.RunSummary
	helpers.ParseJSON(t, resp, &summaries)
	return summaries
}

func caseIDWithResult(t *testing.T, run map[string]interface{}, result string) string {
	t.Helper()
	cases, _ := run["cases"].(map[string]interface{})
	for id, raw := range cases {
		if c, ok := raw.(map[string]interface{}); ok && c["result"] == result {
			return id
		}
	}
	t.Fatalf("no case with result %q in run %v", result, run["run_name"])
	return ""
}

// TestSubmitAndFetchRun walks the primary submission flow: the run comes back
// intact, the product gets its display name, and the summary is tallied.
func TestSubmitAndFetchRun(t *testing.T) {
	requireApp(t)

	submitRun(t, "smoke-1", helpers.RunPayload("my-app", "0", "1"))

	run := getRun(t, "smoke-1")
	if run["run_name"] != "smoke-1" {
		t.Errorf("run_name = %v, want smoke-1", run["run_name"])
	}
	if run["product"] != "My App" {
		t.Errorf("product = %v, want My App", run["product"])
	}
	cases, _ := run["cases"].(map[string]interface{})
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	for id, raw := range cases {
		c, ok := raw.(map[string]interface{})
		if !ok || c["_id"] != id {
			t.Errorf("case %s missing matching _id: %v", id, raw)
		}
	}

	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/products/my-app", nil), -1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var product models.Product
	helpers.ParseJSON(t, resp, &product)
	want := models.Product{Name: "My App", Runs: []string{"smoke-1"}}
	if diff := cmp.Diff(want, product); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}

	summaries := getSummaries(t, "my-app")
	wantSummaries := []models.RunSummary{{
		RunName:   "smoke-1",
		Product:   "My App",
		PassCount: 1,
		FailCount: 1,
		NACount:   0,
	}}
	if diff := cmp.Diff(wantSummaries, summaries); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
}

// TestDuplicateRunRejected verifies resubmitting a run name is a conflict and
// leaves the product membership unchanged.
func TestDuplicateRunRejected(t *testing.T) {
	requireApp(t)

	submitRun(t, "dup-1", helpers.RunPayload("dup-app", "0"))

	body, _ := json.Marshal(helpers.RunPayload("dup-app", "0"))
	req := httptest.NewRequest("PUT", "/zelda/runs/dup-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := testApp.Test(req, -1)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusConflict)

	resp, err = testApp.Test(httptest.NewRequest("GET", "/zelda/products/dup-app", nil), -1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	var product models.Product
	helpers.ParseJSON(t, resp, &product)
	if diff := cmp.Diff([]string{"dup-1"}, product.Runs); diff != "" {
		t.Errorf("product runs mismatch (-want +got):\n%s", diff)
	}
}

// TestMultipleRunsShareProduct verifies the run set accumulates without
// duplicates across submissions.
func TestMultipleRunsShareProduct(t *testing.T) {
	requireApp(t)

	submitRun(t, "shared-1", helpers.RunPayload("shared-app", "0"))
	submitRun(t, "shared-2", helpers.RunPayload("shared_app", "1"))

	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/products/shared-app", nil), -1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var product models.Product
	helpers.ParseJSON(t, resp, &product)

	sort.Strings(product.Runs)
	if diff := cmp.Diff([]string{"shared-1", "shared-2"}, product.Runs); diff != "" {
		t.Errorf("product runs mismatch (-want +got):\n%s", diff)
	}

	if got := len(getSummaries(t, "Shared App")); got != 2 {
		t.Errorf("expected 2 summaries, got %d", got)
	}
}

// TestDeleteCaseAdjustsSummary verifies case removal decrements the matching
// counter and that a second delete of the same id fails validation without
// touching the counters.
func TestDeleteCaseAdjustsSummary(t *testing.T) {
	requireApp(t)

	submitRun(t, "trim-1", helpers.RunPayload("trim-app", "0", "1", "2"))
	run := getRun(t, "trim-1")
	caseID := caseIDWithResult(t, run, "2")

	resp, err := testApp.Test(httptest.NewRequest("DELETE", "/zelda/runs/trim-1/cases/"+caseID, nil), -1)
	if err != nil {
		t.Fatalf("delete case: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	run = getRun(t, "trim-1")
	cases, _ := run["cases"].(map[string]interface{})
	if len(cases) != 2 {
		t.Errorf("expected 2 cases after delete, got %d", len(cases))
	}
	if _, present := cases[caseID]; present {
		t.Errorf("case %s still present after delete", caseID)
	}

	wantSummaries := []models.RunSummary{{
		RunName:   "trim-1",
		Product:   "Trim App",
		PassCount: 1,
		FailCount: 1,
		NACount:   0,
	}}
	if diff := cmp.Diff(wantSummaries, getSummaries(t, "trim-app")); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}

	// Same id again: rejected, counters untouched.
	resp, err = testApp.Test(httptest.NewRequest("DELETE", "/zelda/runs/trim-1/cases/"+caseID, nil), -1)
	if err != nil {
		t.Fatalf("re-delete case: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusBadRequest)
	if diff := cmp.Diff(wantSummaries, getSummaries(t, "trim-app")); diff != "" {
		t.Errorf("summaries changed after rejected delete (-want +got):\n%s", diff)
	}
}

// TestAnnotateCase verifies annotation lands on the addressed case only.
func TestAnnotateCase(t *testing.T) {
	requireApp(t)

	submitRun(t, "note-1", helpers.RunPayload("note-app", "0", "1"))
	run := getRun(t, "note-1")
	failID := caseIDWithResult(t, run, "1")
	passID := caseIDWithResult(t, run, "0")

	body, _ := json.Marshal(map[string]interface{}{"bug": "BUG-42", "comments": "flaky on arm64"})
	req := httptest.NewRequest("POST", "/zelda/runs/note-1/cases/"+failID+"/update", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := testApp.Test(req, -1)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	run = getRun(t, "note-1")
	cases, _ := run["cases"].(map[string]interface{})
	annotated, _ := cases[failID].(map[string]interface{})
	if annotated["bug"] != "BUG-42" || annotated["comments"] != "flaky on arm64" {
		t.Errorf("annotation missing: %v", annotated)
	}
	if annotated["result"] != "1" {
		t.Errorf("annotation clobbered the result field: %v", annotated)
	}
	other, _ := cases[passID].(map[string]interface{})
	if _, touched := other["bug"]; touched {
		t.Errorf("annotation leaked onto other case: %v", other)
	}

	// Unknown case id: not found.
	req = httptest.NewRequest("POST", "/zelda/runs/note-1/cases/bogus/update", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = testApp.Test(req, -1)
	if err != nil {
		t.Fatalf("annotate bogus: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusNotFound)
}

// TestDeleteRunCascade verifies run deletion removes the summary and the
// product membership, and removes the product itself once its run set empties.
func TestDeleteRunCascade(t *testing.T) {
	requireApp(t)

	submitRun(t, "gone-1", helpers.RunPayload("gone-app", "0"))
	submitRun(t, "gone-2", helpers.RunPayload("gone-app", "1"))

	resp, err := testApp.Test(httptest.NewRequest("DELETE", "/zelda/runs/gone-1", nil), -1)
	if err != nil {
		t.Fatalf("delete run: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	resp, err = testApp.Test(httptest.NewRequest("GET", "/zelda/runs/gone-1", nil), -1)
	if err != nil {
		t.Fatalf("get deleted run: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusNotFound)

	resp, err = testApp.Test(httptest.NewRequest("GET", "/zelda/products/gone-app", nil), -1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var product models.Product
	helpers.ParseJSON(t, resp, &product)
	if diff := cmp.Diff([]string{"gone-2"}, product.Runs); diff != "" {
		t.Errorf("product runs mismatch (-want +got):\n%s", diff)
	}

	summaries := getSummaries(t, "gone-app")
	if len(summaries) != 1 || summaries[0].RunName != "gone-2" {
		t.Errorf("unexpected summaries after delete: %+v", summaries)
	}

	// Deleting the last run removes the product document.
	resp, err = testApp.Test(httptest.NewRequest("DELETE", "/zelda/runs/gone-2", nil), -1)
	if err != nil {
		t.Fatalf("delete last run: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	resp, err = testApp.Test(httptest.NewRequest("GET", "/zelda/products/gone-app", nil), -1)
	if err != nil {
		t.Fatalf("get removed product: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusNotFound)
}

// TestGetUnknownRun verifies the not-found envelope for runs.
func TestGetUnknownRun(t *testing.T) {
	requireApp(t)

	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/runs/never-submitted", nil), -1)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusNotFound)

	var envelope map[string]interface{}
	helpers.ParseJSON(t, resp, &envelope)
	if ok, _ := envelope["ok"].(bool); ok {
		t.Errorf("expected ok=false, got %+v", envelope)
	}
}

// TestListProducts verifies product listing includes submitted products.
func TestListProducts(t *testing.T) {
	requireApp(t)

	submitRun(t, "list-1", helpers.RunPayload("list-app", "0"))

	resp, err := testApp.Test(httptest.NewRequest("GET", "/zelda/products", nil), -1)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	var products []models.Product
	helpers.ParseJSON(t, resp, &products)
	found := false
	for _, p := range products {
		if p.Name == "List App" {
			found = true
		}
	}
	if !found {
		t.Errorf("List App missing from product list: %+v", products)
	}
}
