// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/validation"
)

type fakeBackend struct {
	mu        sync.Mutex
	lists     [][]models.Aquarium
	listErrs  []error
	listCalls int
	created   []*models.AquariumDraft
	updated   []*models.Aquarium
	deleted   []models.ID
	feeds     []*models.FeedingLog
	createErr error
	feedErr   error
}

func (f *fakeBackend) ListAquariums(context.Context) ([]models.Aquarium, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.listCalls
	f.listCalls++
	if i < len(f.listErrs) && f.listErrs[i] != nil {
		return nil, f.listErrs[i]
	}
	if i < len(f.lists) {
		return f.lists[i], nil
	}
	if len(f.lists) > 0 {
		return f.lists[len(f.lists)-1], nil
	}
	return []models.Aquarium{}, nil
}

func (f *fakeBackend) CreateAquarium(_ context.Context, draft *models.AquariumDraft) (*models.Aquarium, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, draft)
	return &models.Aquarium{ID: "7", Name: draft.Name, SizeLitres: draft.SizeLitres, DeviceUID: draft.DeviceUID}, nil
}

func (f *fakeBackend) UpdateAquarium(_ context.Context, aq *models.Aquarium) (*models.Aquarium, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, aq)
	return aq, nil
}

func (f *fakeBackend) DeleteAquarium(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) CreateFeedingLog(_ context.Context, entry *models.FeedingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedErr != nil {
		return f.feedErr
	}
	f.feeds = append(f.feeds, entry)
	return nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *recordingSleep) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func ptr[T any](v T) *T { return &v }

func reefTank() models.Aquarium {
	return models.Aquarium{
		ID:                 "42",
		Name:               "Reef Tank",
		SizeLitres:         ptr(100.0),
		DeviceUID:          ptr("ABC123"),
		FeedingVolumeGrams: ptr(5.0),
		FeedingPeriodHours: ptr(8.0),
	}
}

func newTestStore(b Backend) (*Store, *recordingSleep) {
	rec := &recordingSleep{}
	return New(b, WithSleep(rec.sleep)), rec
}

func checkValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *RequestValidationError, got %T: %v", err, err)
	}
	for _, fe := range verr.Errors() {
		if fe.Field() == field {
			return
		}
	}
	t.Errorf("validation error %v does not mention field %q", verr, field)
}

func TestRefresh_Success(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{lists: [][]models.Aquarium{{reefTank()}}}
	s, rec := newTestStore(b)

	list, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "Reef Tank" {
		t.Errorf("Refresh() = %+v", list)
	}
	if !s.Loaded() {
		t.Error("Loaded() = false after success")
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("no sleep expected on first-attempt success, got %v", rec.recorded())
	}
}

func TestRefresh_RetriesOnceThenSucceeds(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		listErrs: []error{errors.New("cold start")},
		lists:    [][]models.Aquarium{nil, {reefTank()}},
	}
	s, rec := newTestStore(b)

	list, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}
	if got := rec.recorded(); len(got) != 1 || got[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want [2s]", got)
	}
}

func TestRefresh_ExhaustedEmptiesList(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	b := &fakeBackend{
		lists:    [][]models.Aquarium{{reefTank()}},
		listErrs: []error{nil, boom, boom},
	}
	s, rec := newTestStore(b)

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	if len(s.List()) != 1 {
		t.Fatal("expected one cached aquarium after first refresh")
	}

	list, err := s.Refresh(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", fe.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Error("FetchError should wrap the last backend error")
	}
	if len(list) != 0 || len(s.List()) != 0 {
		t.Errorf("list should be empty after exhausted retries, got %d cached", len(s.List()))
	}
	if s.Loaded() {
		t.Error("Loaded() should be false after failure")
	}
	if got := rec.recorded(); len(got) != 1 || got[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want exactly one 2s delay", got)
	}
	if b.calls() != 3 {
		t.Errorf("ListAquariums calls = %d, want 3", b.calls())
	}
}

func TestRefresh_ContextCancelledDuringDelay(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{listErrs: []error{errors.New("down"), errors.New("down")}}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(b, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := s.Refresh(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Refresh() error = %v, want context.Canceled", err)
	}
	if b.calls() != 1 {
		t.Errorf("calls = %d, want 1", b.calls())
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("zero delay error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled sleep error = %v", err)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{lists: [][]models.Aquarium{{
		reefTank(),
		{ID: "43", Name: "Shrimp Nano", DeviceUID: ptr("nano-01")},
		{ID: "44", Name: "Quarantine"},
	}}}
	s, _ := newTestStore(b)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  []models.ID
	}{
		{"", []models.ID{"42", "43", "44"}},
		{"   ", []models.ID{"42", "43", "44"}},
		{"reef", []models.ID{"42"}},
		{"  REEF ", []models.ID{"42"}},
		{"abc1", []models.ID{"42"}},
		{"NANO", []models.ID{"43"}},
		{"a", []models.ID{"42", "43", "44"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		got, stats := s.Filter(tt.query)
		if stats.Total != 3 {
			t.Errorf("Filter(%q) total = %d, want 3", tt.query, stats.Total)
		}
		if stats.Filtered != len(tt.want) || len(got) != len(tt.want) {
			t.Errorf("Filter(%q) = %d results, want %d", tt.query, len(got), len(tt.want))
			continue
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("Filter(%q)[%d] = %s, want %s", tt.query, i, got[i].ID, id)
			}
		}
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{lists: [][]models.Aquarium{{reefTank()}}}
	var mu sync.Mutex
	var notified []*models.Aquarium
	rec := &recordingSleep{}
	s := New(b, WithSleep(rec.sleep), WithNotifier(NotifierFunc(func(_ context.Context, aq *models.Aquarium) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, aq)
	})))

	created, err := s.Create(context.Background(), &models.AquariumDraft{Name: "  Reef Tank  ", SizeLitres: ptr(100.0), DeviceUID: ptr("ABC123")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "7" {
		t.Errorf("created.ID = %s, want 7", created.ID)
	}
	if b.created[0].Name != "Reef Tank" {
		t.Errorf("name not trimmed: %q", b.created[0].Name)
	}
	if b.calls() != 1 {
		t.Errorf("Create should refresh once, got %d list calls", b.calls())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 || notified[0].ID != "7" {
		t.Errorf("notifier calls = %v", notified)
	}
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft models.AquariumDraft
		field string
	}{
		{"blank name", models.AquariumDraft{Name: "   "}, "name"},
		{"negative size", models.AquariumDraft{Name: "x", SizeLitres: ptr(-1.0)}, "size_litres"},
		{"bad device", models.AquariumDraft{Name: "x", DeviceUID: ptr("has space")}, "device_uid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := &fakeBackend{}
			s, _ := newTestStore(b)
			_, err := s.Create(context.Background(), &tt.draft)
			checkValidationError(t, err, tt.field)
			if len(b.created) != 0 {
				t.Error("invalid draft must not reach the backend")
			}
		})
	}
}

func TestCreate_RefreshFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	boom := errors.New("down")
	b := &fakeBackend{listErrs: []error{boom, boom}}
	s, _ := newTestStore(b)

	created, err := s.Create(context.Background(), &models.AquariumDraft{Name: "Reef Tank"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil || created.ID != "7" {
		t.Errorf("created = %+v", created)
	}
	if len(s.List()) != 0 {
		t.Error("list should be empty after failed refresh")
	}
}

func TestCreate_BackendError(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{createErr: errors.New("500")}
	s, _ := newTestStore(b)

	if _, err := s.Create(context.Background(), &models.AquariumDraft{Name: "Reef Tank"}); err == nil {
		t.Fatal("expected error")
	}
	if b.calls() != 0 {
		t.Error("failed create must not refresh")
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	s, _ := newTestStore(b)

	aq := reefTank()
	aq.FeedingVolumeGrams = nil
	if _, err := s.Update(context.Background(), &aq); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(b.updated) != 1 || b.updated[0].FeedingVolumeGrams != nil {
		t.Errorf("updated = %+v", b.updated)
	}
	if b.calls() != 0 {
		t.Error("Update must not refresh the cache")
	}

	_, err := s.Update(context.Background(), &models.Aquarium{Name: "x"})
	checkValidationError(t, err, "id")

	bad := reefTank()
	bad.FeedingPeriodHours = ptr(0.0)
	_, err = s.Update(context.Background(), &bad)
	checkValidationError(t, err, "feeding_period_hours")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	s, _ := newTestStore(b)

	err := s.Delete(context.Background(), "42", false)
	checkValidationError(t, err, "confirm")
	if len(b.deleted) != 0 {
		t.Fatal("unconfirmed delete reached the backend")
	}

	if err := s.Delete(context.Background(), "42", true); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(b.deleted) != 1 || b.deleted[0] != "42" {
		t.Errorf("deleted = %v", b.deleted)
	}
	if b.calls() != 1 {
		t.Errorf("Delete should refresh once, got %d", b.calls())
	}
}

func TestDefaultFeedVolume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		aq   models.Aquarium
		want float64
	}{
		{"configured volume", models.Aquarium{FeedingVolumeGrams: ptr(7.5), SizeLitres: ptr(100.0)}, 7.5},
		{"zero volume uses size", models.Aquarium{FeedingVolumeGrams: ptr(0.0), SizeLitres: ptr(100.0)}, 20},
		{"size rounds", models.Aquarium{SizeLitres: ptr(12.0)}, 2},
		{"tiny size floors at 1", models.Aquarium{SizeLitres: ptr(1.0)}, 1},
		{"zero size falls back", models.Aquarium{SizeLitres: ptr(0.0)}, 5},
		{"nothing set", models.Aquarium{}, 5},
	}
	for _, tt := range tests {
		if got := DefaultFeedVolume(&tt.aq); got != tt.want {
			t.Errorf("%s: DefaultFeedVolume() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFeed(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	s, _ := newTestStore(b)
	aq := reefTank()

	entry, err := s.Feed(context.Background(), &aq, nil)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	want := models.FeedingLog{AquariumID: "42", Mode: "MANUAL", VolumeGrams: 5, Actor: "manual_ui"}
	if *entry != want || *b.feeds[0] != want {
		t.Errorf("feeding log = %+v, want %+v", *entry, want)
	}

	if _, err := s.Feed(context.Background(), &aq, ptr(3.0)); err != nil {
		t.Fatalf("Feed(3) error = %v", err)
	}
	if b.feeds[1].VolumeGrams != 3 {
		t.Errorf("explicit volume = %v, want 3", b.feeds[1].VolumeGrams)
	}

	_, err = s.Feed(context.Background(), &aq, ptr(0.0))
	checkValidationError(t, err, "volume_grams")

	noDevice := models.Aquarium{ID: "43", Name: "Quarantine"}
	_, err = s.Feed(context.Background(), &noDevice, nil)
	checkValidationError(t, err, "device_uid")

	if len(b.feeds) != 2 {
		t.Errorf("feeds = %d, want 2", len(b.feeds))
	}
}

func TestApplyForm(t *testing.T) {
	t.Parallel()

	uid := "OLD-1"
	current := &models.Aquarium{ID: "42", UserID: "u-1", Name: "Old", DeviceUID: &uid}
	aq, err := ApplyForm(current, &models.AquariumForm{
		Name:               " Reef Tank ",
		SizeLitres:         "100",
		DeviceUID:          "",
		FeedingVolumeGrams: " 5 ",
		FeedingPeriodHours: "",
	})
	if err != nil {
		t.Fatalf("ApplyForm() error = %v", err)
	}
	if aq.Name != "Reef Tank" || *aq.SizeLitres != 100 || *aq.FeedingVolumeGrams != 5 {
		t.Errorf("ApplyForm() = %+v", aq)
	}
	if aq.DeviceUID != nil || aq.FeedingPeriodHours != nil {
		t.Error("blank fields should parse to nil")
	}
	if aq.ID != "42" || aq.UserID != "u-1" {
		t.Errorf("fields outside the form were lost: id=%q user_id=%q", aq.ID, aq.UserID)
	}
	if current.Name != "Old" || current.DeviceUID == nil {
		t.Error("ApplyForm() must not modify the current record")
	}

	_, err = ApplyForm(current, &models.AquariumForm{Name: "x", FeedingPeriodHours: "eight"})
	checkValidationError(t, err, "feeding_period_hours")

	draft, err := ParseDraft(&models.AquariumForm{Name: "Nano", SizeLitres: "", DeviceUID: " dev-1 "})
	if err != nil {
		t.Fatalf("ParseDraft() error = %v", err)
	}
	if draft.SizeLitres != nil || draft.DeviceUID == nil || *draft.DeviceUID != "dev-1" {
		t.Errorf("ParseDraft() = %+v", draft)
	}

	_, err = ParseDraft(&models.AquariumForm{Name: "x", SizeLitres: "NaN"})
	checkValidationError(t, err, "size_litres")
}
