// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aquascape/internal/models"
)

func newMuxClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(testConfig(srv.URL), staticToken("t"))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestListAquariums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `[{"id":1,"name":"A"},{"id":"b2","name":"B"}]`, 2},
		{"empty array", `[]`, 0},
		{"object", `{"items":[]}`, 0},
		{"empty body", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("GET /aquariums", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			c := newMuxClient(t, mux)

			got, err := c.ListAquariums(context.Background())
			if err != nil {
				t.Fatalf("ListAquariums() error = %v", err)
			}
			if got == nil {
				t.Fatal("ListAquariums() returned nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCreateAquarium(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var received map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /aquariums", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&received)
		writeJSON(w, http.StatusCreated, `{"id":42,"name":"Reef Tank","size_litres":100,"device_uid":"ABC123"}`)
	})
	c := newMuxClient(t, mux)

	size := 100.0
	created, err := c.CreateAquarium(context.Background(), &models.AquariumDraft{Name: "Reef Tank", SizeLitres: &size})
	if err != nil {
		t.Fatalf("CreateAquarium() error = %v", err)
	}
	if created.ID != "42" {
		t.Errorf("ID = %q, want 42", created.ID)
	}
	mu.Lock()
	defer mu.Unlock()
	if v, ok := received["device_uid"]; !ok || v != nil {
		t.Errorf("blank device_uid should be sent as null, got %v (present=%v)", v, ok)
	}
}

func TestCreateAquarium_MissingID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /aquariums", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	c := newMuxClient(t, mux)

	if _, err := c.CreateAquarium(context.Background(), &models.AquariumDraft{Name: "x"}); err == nil {
		t.Fatal("expected error when backend omits id")
	}
}

func TestUpdateAquarium_EmptyResponse(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /aquariums/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newMuxClient(t, mux)

	got, err := c.UpdateAquarium(context.Background(), &models.Aquarium{ID: "42", Name: "Reef"})
	if err != nil {
		t.Fatalf("UpdateAquarium() error = %v", err)
	}
	if got.ID != "42" || got.Name != "Reef" {
		t.Errorf("UpdateAquarium() = %+v", got)
	}
}

func TestResolveScheduleID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /aquariums/{id}/schedule-id", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			writeJSON(w, http.StatusOK, `{"schedule_id":7}`)
		case "2":
			writeJSON(w, http.StatusOK, `{"schedule_id":null}`)
		case "3":
			writeJSON(w, http.StatusNotFound, `{"message":"no schedule"}`)
		default:
			writeJSON(w, http.StatusInternalServerError, `{"message":"db down"}`)
		}
	})
	c := newMuxClient(t, mux)

	tests := []struct {
		aquarium models.ID
		want     models.ID
		wantErr  bool
	}{
		{"1", "7", false},
		{"2", "", false},
		{"3", "", false},
		{"4", "", true},
	}
	for _, tt := range tests {
		got, err := c.ResolveScheduleID(context.Background(), tt.aquarium)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveScheduleID(%s) error = %v, wantErr %v", tt.aquarium, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ResolveScheduleID(%s) = %q, want %q", tt.aquarium, got, tt.want)
		}
	}
}

func TestScheduleCreateAndUpdate(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var created, updated models.SchedulePayload
	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedules", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&created)
		writeJSON(w, http.StatusCreated, `{"id":99}`)
	})
	mux.HandleFunc("PUT /schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "99" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&updated)
		writeJSON(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("GET /schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":99,"aquarium_id":42,"interval_hours":8,"feed_volume_grams":5,"enabled":true}`)
	})
	c := newMuxClient(t, mux)

	payload := &models.SchedulePayload{
		AquariumID: "42", Name: models.ScheduleNameAuto, Type: models.ScheduleTypeInterval,
		IntervalHours: 8, FeedVolumeGrams: 5, Enabled: true,
	}
	id, err := c.CreateSchedule(context.Background(), payload)
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}
	if id != "99" {
		t.Errorf("CreateSchedule() id = %q, want 99", id)
	}
	if err := c.UpdateSchedule(context.Background(), id, payload); err != nil {
		t.Fatalf("UpdateSchedule() error = %v", err)
	}
	mu.Lock()
	if created.AquariumID != "42" || updated.IntervalHours != 8 {
		t.Errorf("created = %+v, updated = %+v", created, updated)
	}
	mu.Unlock()

	got, err := c.GetSchedule(context.Background(), "99")
	if err != nil || got.FeedVolumeGrams != 5 {
		t.Errorf("GetSchedule() = %+v, %v", got, err)
	}
}

func TestSensorAndAlertEndpoints(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var resolvedPath, feedBody string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sensor_data", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("aquarium_id") != "42" {
			writeJSON(w, http.StatusOK, `[]`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"ts":"2026-03-01T10:00:00Z","ph":7.1}]`)
	})
	mux.HandleFunc("GET /alerts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":5,"aquarium_id":42,"message":"pH low","ts":"2026-03-01T10:00:00Z"}]`)
	})
	mux.HandleFunc("POST /alerts/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resolvedPath = r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /feeding_logs", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		feedBody = strings.TrimSpace(string(b))
		mu.Unlock()
		writeJSON(w, http.StatusCreated, `{}`)
	})
	mux.HandleFunc("POST /alerts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id":6}`)
	})
	c := newMuxClient(t, mux)
	ctx := context.Background()

	records, err := c.ListSensorData(ctx, "42")
	if err != nil || len(records) != 1 || records[0]["ts"] != "2026-03-01T10:00:00Z" {
		t.Errorf("ListSensorData() = %v, %v", records, err)
	}

	alerts, err := c.ListAlerts(ctx, "42")
	if err != nil || len(alerts) != 1 || alerts[0].ID != "5" {
		t.Errorf("ListAlerts() = %v, %v", alerts, err)
	}

	if err := c.ResolveAlert(ctx, "5"); err != nil {
		t.Fatalf("ResolveAlert() error = %v", err)
	}
	mu.Lock()
	if resolvedPath != "/alerts/5/resolve" {
		t.Errorf("resolve path = %q", resolvedPath)
	}
	mu.Unlock()

	err = c.CreateFeedingLog(ctx, &models.FeedingLog{AquariumID: "42", Mode: models.FeedModeManual, VolumeGrams: 20, Actor: models.FeedActorUI})
	if err != nil {
		t.Fatalf("CreateFeedingLog() error = %v", err)
	}
	want := `{"aquarium_id":42,"mode":"MANUAL","volume_grams":20,"actor":"manual_ui"}`
	mu.Lock()
	if feedBody != want {
		t.Errorf("feeding log body = %s, want %s", feedBody, want)
	}
	mu.Unlock()

	if err := c.CreateAlert(ctx, &models.AlertRecord{AquariumID: "42", Type: "feed_command"}); err != nil {
		t.Errorf("CreateAlert() error = %v", err)
	}
}
