package routing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/observability"
)

// Shared fakes for the routing package tests.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func ptr[T any](v T) *T { return &v }

type stubProvider struct {
	leg   domain.DirectionsLeg
	err   error
	calls int
}

func (p *stubProvider) Directions(_ context.Context, _, _ domain.Point, _ string) (domain.DirectionsLeg, error) {
	p.calls++
	return p.leg, p.err
}

type memRouteStore struct {
	records []domain.RouteRecord
	listErr error
	putErr  error
	lists   int
	puts    int
}

func (s *memRouteStore) ListRoutesByAlert(_ context.Context, alertID string) ([]domain.RouteRecord, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.RouteRecord
	for _, r := range s.records {
		if r.AlertID == alertID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memRouteStore) PutRoute(_ context.Context, rec domain.RouteRecord) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.records = append(s.records, rec)
	return nil
}

type memAlertStore struct {
	alerts map[string]domain.Alert
	gets   int
}

func (s *memAlertStore) GetAlert(_ context.Context, id string) (*domain.Alert, error) {
	s.gets++
	if a, ok := s.alerts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *memAlertStore) ListAlerts(_ context.Context) ([]domain.Alert, error) {
	out := make([]domain.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	return out, nil
}

func (s *memAlertStore) PutAlert(_ context.Context, alert domain.Alert) error {
	if s.alerts == nil {
		s.alerts = map[string]domain.Alert{}
	}
	s.alerts[alert.ID] = alert
	return nil
}

type memShelterStore struct {
	shelters []domain.Shelter
	err      error
	scans    int
}

func (s *memShelterStore) ListShelters(_ context.Context) ([]domain.Shelter, error) {
	s.scans++
	if s.err != nil {
		return nil, s.err
	}
	return s.shelters, nil
}

type memResidentStore struct {
	residents map[string]domain.Resident
	gets      int
}

func (s *memResidentStore) GetResident(_ context.Context, phone string) (*domain.Resident, error) {
	s.gets++
	if r, ok := s.residents[phone]; ok {
		return &r, nil
	}
	return nil, nil
}

type recordingBroadcast struct {
	subjects []string
	messages []string
	err      error
}

func (b *recordingBroadcast) Publish(_ context.Context, subject, message string) error {
	if b.err != nil {
		return b.err
	}
	b.subjects = append(b.subjects, subject)
	b.messages = append(b.messages, message)
	return nil
}

type recordingDirect struct {
	phones   []string
	messages []string
	err      error
}

func (d *recordingDirect) Send(_ context.Context, phone, message string) error {
	if d.err != nil {
		return d.err
	}
	d.phones = append(d.phones, phone)
	d.messages = append(d.messages, message)
	return nil
}

var errStoreDown = errors.New("store down")
