// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package models defines the data structures shared by the gateway, the
reconciliation layer and the HTTP API.

Key Components:

  - Aquarium, AquariumDraft: backend aquarium records and create requests
  - Schedule, SchedulePayload: feeding schedules (one per aquarium)
  - SensorPoint, SensorSeries: normalized chart series
  - DangerAlert, AlertRecord: device alerts and command records
  - FeedingLog: manual feed events
  - APIResponse: the BFF response envelope

Blank numeric fields are pointers without omitempty so they travel as JSON
null, never as empty strings.
*/
package models
