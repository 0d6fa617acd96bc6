package store

import (
	"context"
	"database/sql"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const shipmentNotFound = "Envío no encontrado"

// ListCarriers returns carriers ordered by name, which is also the quoting rank order
func (s *Store) ListCarriers(ctx context.Context, activeOnly bool) ([]models.Carrier, error) {
	query := "SELECT * FROM carriers ORDER BY nombre, id"
	if activeOnly {
		query = "SELECT * FROM carriers WHERE activo ORDER BY nombre, id"
	}

	var carriers []models.Carrier
	err := s.db.SelectContext(ctx, &carriers, query)
	return carriers, err
}

// GetCarrierByID retrieves a carrier by ID
func (s *Store) GetCarrierByID(ctx context.Context, id int64) (*models.Carrier, error) {
	var c models.Carrier
	if err := s.db.GetContext(ctx, &c, "SELECT * FROM carriers WHERE id = $1", id); err != nil {
		return nil, notFound(err, "Carrier no encontrado")
	}
	return &c, nil
}

// EnsureCarriers seeds the catalogue when no carrier exists yet
func (s *Store) EnsureCarriers(ctx context.Context, carriers []models.Carrier) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM carriers"); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, c := range carriers {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO carriers (codigo, nombre, activo) VALUES ($1, $2, $3) ON CONFLICT (codigo) DO NOTHING",
				c.Code, c.Name, c.Active)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateShipment inserts a shipment
func (s *Store) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	query := `
		INSERT INTO shipments (order_id, carrier_id, costo, moneda, estado, dias_estimados,
			proveedor_envio_id, tracking_number, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, fecha_creacion, fecha_actualizacion`

	return s.db.QueryRowxContext(ctx, query,
		sh.OrderID, sh.CarrierID, sh.Cost, sh.Currency, sh.State, sh.EstimatedDays,
		sh.ProviderID, sh.TrackingNumber, sh.Metadata,
	).Scan(&sh.ID, &sh.CreatedAt, &sh.UpdatedAt)
}

// GetShipmentByID retrieves a shipment by ID
func (s *Store) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.db.GetContext(ctx, &sh, "SELECT * FROM shipments WHERE id = $1", id); err != nil {
		return nil, notFound(err, shipmentNotFound)
	}
	return &sh, nil
}

// FindShipmentByProviderID returns nil when no shipment carries the provider id
func (s *Store) FindShipmentByProviderID(ctx context.Context, providerID string) (*models.Shipment, error) {
	return s.findShipment(ctx, "SELECT * FROM shipments WHERE proveedor_envio_id = $1 ORDER BY id LIMIT 1", providerID)
}

// FindShipmentByTrackingNumber returns nil when no shipment carries the tracking number
func (s *Store) FindShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return s.findShipment(ctx, "SELECT * FROM shipments WHERE tracking_number = $1 ORDER BY id LIMIT 1", trackingNumber)
}

func (s *Store) findShipment(ctx context.Context, query, arg string) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.db.GetContext(ctx, &sh, query, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// ListTrackingEvents returns the tracking log of a shipment, newest event first
func (s *Store) ListTrackingEvents(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM tracking_events WHERE shipment_id = $1 ORDER BY fecha_evento DESC, id DESC", shipmentID)
	return events, err
}

// ApplyTrackingUpdate writes the updated shipment fields and appends the tracking event atomically
func (s *Store) ApplyTrackingUpdate(ctx context.Context, sh *models.Shipment, event *models.TrackingEvent) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE shipments SET estado = $1, tracking_number = $2, tracking_url = $3, etiqueta_url = $4,
				metadata = $5, fecha_actualizacion = NOW()
			WHERE id = $6
			RETURNING fecha_actualizacion`,
			sh.State, sh.TrackingNumber, sh.TrackingURL, sh.LabelURL, sh.Metadata, sh.ID,
		).Scan(&sh.UpdatedAt)
		if err != nil {
			return notFound(err, shipmentNotFound)
		}

		event.ShipmentID = sh.ID
		return tx.QueryRowxContext(ctx, `
			INSERT INTO tracking_events (shipment_id, estado, descripcion, fecha_evento)
			VALUES ($1, $2, $3, $4)
			RETURNING id, fecha_creacion`,
			event.ShipmentID, event.State, event.Description, event.OccurredAt,
		).Scan(&event.ID, &event.CreatedAt)
	})
}
