package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/handlers"
	"github.com/zeldalab/zelda/internal/store"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func newRunApp(db r.QueryExecutor) *fiber.App {
	app := fiber.New()
	h := &handlers.RunHandler{DB: db}
	app.Put("/zelda/runs/:run_name", h.SubmitRun)
	app.Get("/zelda/runs/:run_name", h.GetRun)
	app.Delete("/zelda/runs/:run_name", h.DeleteRun)
	return app
}

// TestSubmitRunInvalidPayload verifies a malformed submission is a 400
func TestSubmitRunInvalidPayload(t *testing.T) {
	app := newRunApp(r.NewMock())

	body, _ := json.Marshal(map[string]interface{}{
		"product": "my-app",
		"cases":   []interface{}{},
	})
	req := httptest.NewRequest("PUT", "/zelda/runs/run-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

// TestSubmitRunBadJSON verifies an unparsable body is a 400
func TestSubmitRunBadJSON(t *testing.T) {
	app := newRunApp(r.NewMock())

	req := httptest.NewRequest("PUT", "/zelda/runs/run-1", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

// TestGetRunHandler verifies a stored run is returned as-is
func TestGetRunHandler(t *testing.T) {
	doc := map[string]interface{}{
		"run_name": "run-1",
		"product":  "My App",
		"cases": map[string]interface{}{
			"c1": map[string]interface{}{"_id": "c1", "result": "0"},
		},
	}
	mock := r.NewMock()
	mock.On(r.Table(store.TableRuns).Get("run-1")).Return(doc, nil)
	app := newRunApp(mock)

	resp, err := app.Test(httptest.NewRequest("GET", "/zelda/runs/run-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got["run_name"] != "run-1" || got["product"] != "My App" {
		t.Errorf("unexpected run document: %+v", got)
	}
	mock.AssertExpectations(t)
}

// TestGetRunHandlerNotFound verifies a missing run is a 404 envelope
func TestGetRunHandlerNotFound(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table(store.TableRuns).Get("missing")).Return(nil, nil)
	app := newRunApp(mock)

	resp, err := app.Test(httptest.NewRequest("GET", "/zelda/runs/missing", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if ok, _ := envelope["ok"].(bool); ok {
		t.Errorf("expected ok=false in error envelope, got %+v", envelope)
	}
	mock.AssertExpectations(t)
}
