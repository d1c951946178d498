// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aquascape/internal/models"
)

func aquariumPath(id models.ID) string {
	return "/aquariums/" + url.PathEscape(id.String())
}

// ListAquariums fetches the signed-in user's aquariums. A response that is
// not a JSON array is treated as an empty list.
func (c *Client) ListAquariums(ctx context.Context) ([]models.Aquarium, error) {
	var aquariums []models.Aquarium
	if err := c.getArray(ctx, "/aquariums", &aquariums); err != nil {
		return nil, err
	}
	if aquariums == nil {
		aquariums = []models.Aquarium{}
	}
	return aquariums, nil
}

// CreateAquarium posts a new aquarium and returns the backend record.
func (c *Client) CreateAquarium(ctx context.Context, draft *models.AquariumDraft) (*models.Aquarium, error) {
	var created models.Aquarium
	if err := c.Do(ctx, http.MethodPost, "/aquariums", draft, &created); err != nil {
		return nil, err
	}
	if created.ID.IsZero() {
		return nil, &GatewayError{
			Method:  http.MethodPost,
			Path:    "/aquariums",
			Status:  http.StatusOK,
			Message: "backend did not return an aquarium id",
		}
	}
	return &created, nil
}

// UpdateAquarium replaces the full aquarium record. When the backend
// replies without a body, the submitted record is returned.
func (c *Client) UpdateAquarium(ctx context.Context, aq *models.Aquarium) (*models.Aquarium, error) {
	path := aquariumPath(aq.ID)
	updated := *aq
	if err := c.Do(ctx, http.MethodPut, path, aq, &updated); err != nil {
		return nil, err
	}
	if updated.ID.IsZero() {
		updated.ID = aq.ID
	}
	return &updated, nil
}

// DeleteAquarium deletes an aquarium.
func (c *Client) DeleteAquarium(ctx context.Context, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, aquariumPath(id), nil, nil)
}

// ResolveScheduleID looks up the schedule attached to an aquarium. A 404 or
// a null schedule_id both mean no schedule exists yet and return "".
func (c *Client) ResolveScheduleID(ctx context.Context, aquariumID models.ID) (models.ID, error) {
	var lookup models.ScheduleIDLookup
	err := c.Do(ctx, http.MethodGet, aquariumPath(aquariumID)+"/schedule-id", nil, &lookup)
	if IsStatus(err, http.StatusNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return lookup.ScheduleID, nil
}

// GetSchedule fetches a schedule by id.
func (c *Client) GetSchedule(ctx context.Context, id models.ID) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := c.Do(ctx, http.MethodGet, "/schedules/"+url.PathEscape(id.String()), nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// CreateSchedule posts a schedule and returns the assigned id.
func (c *Client) CreateSchedule(ctx context.Context, payload *models.SchedulePayload) (models.ID, error) {
	var created struct {
		ID models.ID `json:"id"`
	}
	if err := c.Do(ctx, http.MethodPost, "/schedules", payload, &created); err != nil {
		return "", err
	}
	if created.ID.IsZero() {
		return "", &GatewayError{
			Method:  http.MethodPost,
			Path:    "/schedules",
			Status:  http.StatusOK,
			Message: "backend did not return a schedule id",
		}
	}
	return created.ID, nil
}

// UpdateSchedule replaces an existing schedule.
func (c *Client) UpdateSchedule(ctx context.Context, id models.ID, payload *models.SchedulePayload) error {
	return c.Do(ctx, http.MethodPut, "/schedules/"+url.PathEscape(id.String()), payload, nil)
}

// ListSensorData returns raw sensor records for an aquarium. Records are
// left as decoded JSON objects; normalization happens in the reducer.
func (c *Client) ListSensorData(ctx context.Context, aquariumID models.ID) ([]models.SensorRecord, error) {
	var records []models.SensorRecord
	path := "/sensor_data?aquarium_id=" + url.QueryEscape(aquariumID.String())
	if err := c.getArray(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateFeedingLog records a manual feed event.
func (c *Client) CreateFeedingLog(ctx context.Context, entry *models.FeedingLog) error {
	return c.Do(ctx, http.MethodPost, "/feeding_logs", entry, nil)
}

// CreateAlert posts an alert or command record.
func (c *Client) CreateAlert(ctx context.Context, record *models.AlertRecord) error {
	return c.Do(ctx, http.MethodPost, "/alerts", record, nil)
}

// ListAlerts fetches active danger alerts for an aquarium.
func (c *Client) ListAlerts(ctx context.Context, aquariumID models.ID) ([]models.DangerAlert, error) {
	var alerts []models.DangerAlert
	path := "/alerts?aquarium_id=" + url.QueryEscape(aquariumID.String())
	if err := c.getArray(ctx, path, &alerts); err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []models.DangerAlert{}
	}
	return alerts, nil
}

// ResolveAlert acknowledges an alert.
func (c *Client) ResolveAlert(ctx context.Context, id models.ID) error {
	return c.Do(ctx, http.MethodPost, "/alerts/"+url.PathEscape(id.String())+"/resolve", nil, nil)
}

// SyncUser reconciles the identity provider account with the backend user.
func (c *Client) SyncUser(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/sync-user", struct{}{}, nil)
}

// getArray GETs path and decodes a JSON array into out. Any other JSON
// shape leaves out untouched.
func (c *Client) getArray(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	raw := bytes.TrimSpace(resp.Body())
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{
			Method:  http.MethodGet,
			Path:    path,
			Status:  resp.StatusCode(),
			Message: "invalid response from backend",
			Err:     fmt.Errorf("decode array: %w", err),
		}
	}
	return nil
}
