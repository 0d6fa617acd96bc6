package memstore

import (
	"context"
	"sort"

	"marketplace-service/internal/models"
)

func cloneShipment(sh *models.Shipment) models.Shipment {
	out := *sh
	out.Metadata = sh.Metadata.Clone()
	out.Tracking = nil
	return out
}

// ListCarriers returns carriers ordered by name
func (s *Store) ListCarriers(ctx context.Context, activeOnly bool) ([]models.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Carrier{}
	for _, c := range s.carriers {
		if !activeOnly || c.Active {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetCarrierByID retrieves a carrier by ID
func (s *Store) GetCarrierByID(ctx context.Context, id int64) (*models.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[id]
	if !ok {
		return nil, notFound("Carrier no encontrado")
	}
	out := *c
	return &out, nil
}

// EnsureCarriers seeds the catalogue when no carrier exists yet
func (s *Store) EnsureCarriers(ctx context.Context, carriers []models.Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.carriers) > 0 {
		return nil
	}
	seen := make(map[string]bool, len(carriers))
	for _, c := range carriers {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		c.ID = s.nextID()
		c.CreatedAt = s.now()
		stored := c
		s.carriers[c.ID] = &stored
	}
	return nil
}

// CreateShipment inserts a shipment
func (s *Store) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh.ID = s.nextID()
	sh.CreatedAt = s.now()
	sh.UpdatedAt = sh.CreatedAt
	if sh.Metadata == nil {
		sh.Metadata = models.JSONMap{}
	}
	stored := cloneShipment(sh)
	s.shipments[sh.ID] = &stored
	return nil
}

// GetShipmentByID retrieves a shipment by ID
func (s *Store) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[id]
	if !ok {
		return nil, notFound("Envío no encontrado")
	}
	out := cloneShipment(sh)
	return &out, nil
}

// FindShipmentByProviderID returns nil when no shipment carries the provider id
func (s *Store) FindShipmentByProviderID(ctx context.Context, providerID string) (*models.Shipment, error) {
	return s.findShipment(func(sh *models.Shipment) bool {
		return sh.ProviderID != nil && *sh.ProviderID == providerID
	}), nil
}

// FindShipmentByTrackingNumber returns nil when no shipment carries the tracking number
func (s *Store) FindShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return s.findShipment(func(sh *models.Shipment) bool {
		return sh.TrackingNumber != nil && *sh.TrackingNumber == trackingNumber
	}), nil
}

// findShipment returns the lowest id match, like the SQL ORDER BY id LIMIT 1
func (s *Store) findShipment(match func(*models.Shipment) bool) *models.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Shipment
	for _, sh := range s.shipments {
		if match(sh) && (found == nil || sh.ID < found.ID) {
			found = sh
		}
	}
	if found == nil {
		return nil
	}
	out := cloneShipment(found)
	return &out
}

// ListTrackingEvents returns the tracking log of a shipment, newest event first
func (s *Store) ListTrackingEvents(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]models.TrackingEvent{}, s.tracking[shipmentID]...)
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].OccurredAt, out[j].OccurredAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// ApplyTrackingUpdate writes the updated shipment fields and appends the tracking event
func (s *Store) ApplyTrackingUpdate(ctx context.Context, sh *models.Shipment, event *models.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.shipments[sh.ID]
	if !ok {
		return notFound("Envío no encontrado")
	}

	sh.UpdatedAt = s.now()
	stored.State = sh.State
	stored.TrackingNumber = sh.TrackingNumber
	stored.TrackingURL = sh.TrackingURL
	stored.LabelURL = sh.LabelURL
	stored.Metadata = sh.Metadata.Clone()
	stored.UpdatedAt = sh.UpdatedAt

	event.ID = s.nextID()
	event.ShipmentID = sh.ID
	event.CreatedAt = sh.UpdatedAt
	s.tracking[sh.ID] = append(s.tracking[sh.ID], *event)
	return nil
}
