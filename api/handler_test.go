package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/api"
	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
	"github.com/fairlx/fanout/project"
	"github.com/fairlx/fanout/store/memory"
	"github.com/fairlx/fanout/webhook"
)

func newTestAPI(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	d, err := fanout.New(fanout.WithStore(store))
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(api.NewHandler(d, nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func doRequest(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func createPayload() map[string]any {
	return map[string]any{
		"name":   "ci notifier",
		"url":    "https://hooks.example.com/fairlx",
		"events": []string{"TASK_CREATED", "TASK_COMPLETED"},
	}
}

func TestCreateWebhook(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/projects/proj-1/webhooks", createPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created struct {
		ID        string   `json:"id"`
		ProjectID string   `json:"project_id"`
		Enabled   bool     `json:"enabled"`
		Events    []string `json:"events"`
		Secret    string   `json:"secret"`
	}
	decodeBody(t, resp, &created)

	if !strings.HasPrefix(created.ID, "wh_") {
		t.Errorf("id = %q", created.ID)
	}
	if created.ProjectID != "proj-1" {
		t.Errorf("project_id = %q, want the path value", created.ProjectID)
	}
	if !created.Enabled {
		t.Error("new webhooks should be enabled")
	}
	if len(created.Events) != 2 {
		t.Errorf("events = %v", created.Events)
	}
	if created.Secret != "" {
		t.Error("the signing secret must never be serialized")
	}
}

func TestCreateWebhookRejectsPrivateURL(t *testing.T) {
	srv, _ := newTestAPI(t)

	payload := createPayload()
	payload["url"] = "http://10.0.0.5/hook"
	resp := doRequest(t, http.MethodPost, srv.URL+"/projects/proj-1/webhooks", payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookLifecycle(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/projects/proj-1/webhooks", createPayload())
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	// List.
	resp = doRequest(t, http.MethodGet, srv.URL+"/projects/proj-1/webhooks", nil)
	var listed []json.RawMessage
	decodeBody(t, resp, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d webhooks, want 1", len(listed))
	}

	// Get.
	resp = doRequest(t, http.MethodGet, srv.URL+"/webhooks/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Update the name only.
	resp = doRequest(t, http.MethodPut, srv.URL+"/webhooks/"+created.ID,
		map[string]any{"name": "renamed"})
	var updated struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	decodeBody(t, resp, &updated)
	if updated.Name != "renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.URL != "https://hooks.example.com/fairlx" {
		t.Errorf("URL changed on partial update: %q", updated.URL)
	}

	// Disable, then verify.
	resp = doRequest(t, http.MethodPatch, srv.URL+"/webhooks/"+created.ID+"/disable", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("disable status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/webhooks/"+created.ID, nil)
	var got struct {
		Enabled bool `json:"enabled"`
	}
	decodeBody(t, resp, &got)
	if got.Enabled {
		t.Error("webhook should be disabled")
	}

	// Re-enable.
	resp = doRequest(t, http.MethodPatch, srv.URL+"/webhooks/"+created.ID+"/enable", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("enable status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete, then 404.
	resp = doRequest(t, http.MethodDelete, srv.URL+"/webhooks/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/webhooks/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestWebhookNotFoundAndBadID(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/webhooks/"+id.NewWebhookID().String(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/webhooks/not-a-typeid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRotateSecret(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/projects/proj-1/webhooks", createPayload())
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	resp = doRequest(t, http.MethodPost, srv.URL+"/webhooks/"+created.ID+"/rotate-secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rotated struct {
		Secret string `json:"secret"`
	}
	decodeBody(t, resp, &rotated)
	if !strings.HasPrefix(rotated.Secret, "whsec_") {
		t.Errorf("secret = %q", rotated.Secret)
	}
}

func TestTestEndpointAndDeliveries(t *testing.T) {
	srv, store := newTestAPI(t)

	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	// The registration URL check rejects loopback, so seed the store directly.
	w := &webhook.Webhook{
		Entity:    entity.New(),
		ID:        id.NewWebhookID(),
		ProjectID: "proj-1",
		URL:       receiver.URL,
		Events:    []event.Type{event.TaskCreated},
		Enabled:   true,
	}
	if err := store.CreateWebhook(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertProject(context.Background(), &project.Project{ID: "proj-1", Name: "Apollo"}); err != nil {
		t.Fatal(err)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/webhooks/"+w.ID.String()+"/test", nil)
	var tested struct {
		Delivered bool `json:"delivered"`
	}
	decodeBody(t, resp, &tested)
	if !tested.Delivered {
		t.Error("test delivery should succeed against a 200 receiver")
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/webhooks/"+w.ID.String()+"/deliveries", nil)
	var deliveries []struct {
		Status  string `json:"status"`
		Attempt int    `json:"attempt"`
	}
	decodeBody(t, resp, &deliveries)
	if len(deliveries) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(deliveries))
	}
	if deliveries[0].Status != "SUCCESS" || deliveries[0].Attempt != 1 {
		t.Errorf("delivery = %+v", deliveries[0])
	}
}

func TestDeadLetterEndpoints(t *testing.T) {
	srv, store := newTestAPI(t)

	whID := id.NewWebhookID()
	e := &deadletter.Entry{
		Entity:       entity.New(),
		ID:           id.NewDeadLetterID(),
		WebhookID:    whID,
		ProjectID:    "proj-1",
		Event:        event.TaskCreated,
		Payload:      []byte("{}"),
		Error:        "503",
		AttemptCount: 3,
		FailedAt:     time.Now().UTC(),
	}
	if err := store.PushDeadLetter(context.Background(), e); err != nil {
		t.Fatal(err)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/dead-letters?project_id=proj-1", nil)
	var entries []struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 1 || entries[0].ID != e.ID.String() {
		t.Fatalf("entries = %+v", entries)
	}

	// A filter on a different project matches nothing.
	resp = doRequest(t, http.MethodGet, srv.URL+"/dead-letters?project_id=proj-2", nil)
	var none []json.RawMessage
	decodeBody(t, resp, &none)
	if len(none) != 0 {
		t.Errorf("filtered entries = %d, want 0", len(none))
	}

	// Replay against a deleted webhook conflicts.
	resp = doRequest(t, http.MethodPost, srv.URL+"/dead-letters/"+e.ID.String()+"/replay", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("replay without webhook = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	// Replay of an unknown entry is a 404.
	resp = doRequest(t, http.MethodPost, srv.URL+"/dead-letters/"+id.NewDeadLetterID().String()+"/replay", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("replay of unknown entry = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReplayConflictsWhenDisabled(t *testing.T) {
	srv, store := newTestAPI(t)

	w := &webhook.Webhook{
		Entity:    entity.New(),
		ID:        id.NewWebhookID(),
		ProjectID: "proj-1",
		URL:       "https://hooks.example.com/fairlx",
		Events:    []event.Type{event.TaskCreated},
		Enabled:   false,
	}
	if err := store.CreateWebhook(context.Background(), w); err != nil {
		t.Fatal(err)
	}

	e := &deadletter.Entry{
		Entity:    entity.New(),
		ID:        id.NewDeadLetterID(),
		WebhookID: w.ID,
		ProjectID: "proj-1",
		Event:     event.TaskCreated,
		Payload:   []byte("{}"),
		FailedAt:  time.Now().UTC(),
	}
	if err := store.PushDeadLetter(context.Background(), e); err != nil {
		t.Fatal(err)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/dead-letters/"+e.ID.String()+"/replay", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("replay to disabled webhook = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListEventTypes(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/events", nil)
	var types []struct {
		Type  string `json:"type"`
		Label string `json:"label"`
		Color string `json:"color"`
	}
	decodeBody(t, resp, &types)

	if len(types) != len(event.All()) {
		t.Fatalf("vocabulary size = %d, want %d", len(types), len(event.All()))
	}
	if types[0].Type != "TASK_CREATED" || types[0].Label != "Task Created" {
		t.Errorf("first entry = %+v", types[0])
	}
	want := fmt.Sprintf("#%06X", event.TaskCreated.Color())
	if types[0].Color != want {
		t.Errorf("color = %q, want %q", types[0].Color, want)
	}
}

func TestGetStats(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var stats struct {
		PendingRetries int   `json:"pending_retries"`
		Succeeded      int64 `json:"succeeded"`
		Failed         int64 `json:"failed"`
		DeadLetters    int64 `json:"dead_letters"`
	}
	decodeBody(t, resp, &stats)
	if stats.PendingRetries != 0 || stats.Succeeded != 0 {
		t.Errorf("fresh dispatcher stats = %+v", stats)
	}
}
