package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// User is a marketplace account. Credentials live with the auth collaborator.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Username          string    `db:"username" json:"username"`
	Name              string    `db:"nombre" json:"nombre"`
	Phone             *string   `db:"telefono" json:"telefono"`
	StoreName         *string   `db:"nombre_tienda" json:"nombre_tienda"`
	Street            *string   `db:"calle" json:"calle"`
	City              *string   `db:"ciudad" json:"ciudad"`
	Province          *string   `db:"provincia" json:"provincia"`
	PostalCode        *string   `db:"codigo_postal" json:"codigo_postal"`
	MercadoPagoActive bool      `db:"mercadopago_activa" json:"mercadopago_activa"`
	MercadoPagoAcct   *string   `db:"mercadopago_cuenta" json:"mercadopago_cuenta"`
	LemonActive       bool      `db:"lemon_activa" json:"lemon_activa"`
	LemonAcct         *string   `db:"lemon_cuenta" json:"lemon_cuenta"`
	BrubankActive     bool      `db:"brubank_activa" json:"brubank_activa"`
	BrubankAcct       *string   `db:"brubank_cuenta" json:"brubank_cuenta"`
	IsStaff           bool      `db:"is_staff" json:"is_staff"`
	CreatedAt         time.Time `db:"fecha_creacion" json:"fecha_creacion"`
}

// Product is a catalog listing owned by a single vendor
type Product struct {
	ID           int64               `db:"id" json:"id"`
	Title        string              `db:"titulo" json:"titulo"`
	Description  string              `db:"descripcion" json:"descripcion"`
	Price        decimal.Decimal     `db:"precio" json:"precio"`
	Category     string              `db:"categoria" json:"categoria"`
	Condition    ProductCondition    `db:"condicion" json:"condicion"`
	Stock        int                 `db:"stock" json:"stock"`
	FreeShipping bool                `db:"envio_gratis" json:"envio_gratis"`
	VendorID     int64               `db:"vendedor_id" json:"vendedor_id"`
	State        ProductState        `db:"estado" json:"estado"`
	PublishedAt  time.Time           `db:"fecha_publicacion" json:"fecha_publicacion"`
	Views        int                 `db:"visitas" json:"visitas"`
	WeightKg     decimal.NullDecimal `db:"peso_kg" json:"peso_kg"`
	HeightCm     decimal.NullDecimal `db:"alto_cm" json:"alto_cm"`
	WidthCm      decimal.NullDecimal `db:"ancho_cm" json:"ancho_cm"`
	LengthCm     decimal.NullDecimal `db:"largo_cm" json:"largo_cm"`
	Images       []ProductImage      `db:"-" json:"imagenes"`
}

// MaxProductImages is the number of images kept per product; extra uploads are dropped
const MaxProductImages = 5

// ProductImage references an uploaded image; serving the file is someone else's job
type ProductImage struct {
	ID         int64     `db:"id" json:"id"`
	ProductID  int64     `db:"producto_id" json:"-"`
	URL        string    `db:"imagen" json:"imagen"`
	UploadedAt time.Time `db:"fecha_subida" json:"fecha_subida"`
}

// ProductFilter drives the public listing
type ProductFilter struct {
	Category string
	Search   string
	SortBy   string // "fecha" (default) or "visitas"
}

// Commission is the sale fee percentage for a category
type Commission struct {
	ID         int64           `db:"id" json:"id"`
	Category   string          `db:"categoria" json:"categoria"`
	Percentage decimal.Decimal `db:"porcentaje" json:"porcentaje"`
	Active     bool            `db:"activa" json:"activa"`
	CreatedAt  time.Time       `db:"fecha_creacion" json:"fecha_creacion"`
	UpdatedAt  time.Time       `db:"fecha_actualizacion" json:"fecha_actualizacion"`
}

// Order is a purchase of a single product. UnitPrice is frozen at creation.
type Order struct {
	ID              int64           `db:"id" json:"id"`
	BuyerID         int64           `db:"comprador_id" json:"comprador_id"`
	SellerID        int64           `db:"vendedor_id" json:"vendedor_id"`
	ProductID       int64           `db:"producto_id" json:"producto_id"`
	Quantity        int             `db:"cantidad" json:"cantidad"`
	UnitPrice       decimal.Decimal `db:"precio_unitario" json:"precio_unitario"`
	Total           decimal.Decimal `db:"precio_total" json:"precio_total"`
	PaymentMethod   WalletKind      `db:"metodo_pago" json:"metodo_pago"`
	State           OrderState      `db:"estado" json:"estado"`
	DeliveryAddress *string         `db:"direccion_entrega" json:"direccion_entrega"`
	IdempotencyKey  *string         `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time       `db:"fecha_creacion" json:"fecha_creacion"`
	UpdatedAt       time.Time       `db:"fecha_actualizacion" json:"fecha_actualizacion"`
}

// ComputeTotal derives Total from UnitPrice and Quantity. Every write path calls it.
func (o *Order) ComputeTotal() {
	o.Total = o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// IsParty reports whether the user is the buyer or the seller of the order
func (o *Order) IsParty(userID int64) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// Rating is post-purchase feedback from the buyer about the seller
type Rating struct {
	ID        int64     `db:"id" json:"id"`
	RaterID   int64     `db:"calificador_id" json:"calificador_id"`
	RateeID   int64     `db:"calificado_id" json:"calificado_id"`
	OrderID   *int64    `db:"orden_id" json:"orden_id"`
	Stars     int       `db:"estrellas" json:"estrellas"`
	Comment   *string   `db:"comentario" json:"comentario"`
	CreatedAt time.Time `db:"fecha_creacion" json:"fecha_creacion"`
}

// Question is asked about a product and optionally answered by its vendor
type Question struct {
	ID         int64      `db:"id" json:"id"`
	ProductID  int64      `db:"producto_id" json:"producto_id"`
	UserID     int64      `db:"usuario_id" json:"usuario_id"`
	Text       string     `db:"pregunta" json:"pregunta"`
	Answer     *string    `db:"respuesta" json:"respuesta"`
	AnsweredBy *int64     `db:"respondida_por_id" json:"respondida_por_id"`
	AskedAt    time.Time  `db:"fecha_pregunta" json:"fecha_pregunta"`
	AnsweredAt *time.Time `db:"fecha_respuesta" json:"fecha_respuesta"`
}

// Offer is a buyer's lower price proposal for a product
type Offer struct {
	ID          int64           `db:"id" json:"id"`
	ProductID   int64           `db:"producto_id" json:"producto_id"`
	BuyerID     int64           `db:"comprador_id" json:"comprador_id"`
	Price       decimal.Decimal `db:"precio_ofertado" json:"precio_ofertado"`
	Message     *string         `db:"mensaje" json:"mensaje"`
	State       OfferState      `db:"estado" json:"estado"`
	CreatedAt   time.Time       `db:"fecha_creacion" json:"fecha_creacion"`
	RespondedAt *time.Time      `db:"fecha_respuesta" json:"fecha_respuesta"`
}

// Message is a note between two users, optionally about an order
type Message struct {
	ID          int64     `db:"id" json:"id"`
	OrderID     *int64    `db:"orden_id" json:"orden_id"`
	SenderID    int64     `db:"remitente_id" json:"remitente_id"`
	RecipientID int64     `db:"destinatario_id" json:"destinatario_id"`
	Subject     *string   `db:"asunto" json:"asunto"`
	Body        string    `db:"mensaje" json:"mensaje"`
	Read        bool      `db:"leido" json:"leido"`
	SentAt      time.Time `db:"fecha_envio" json:"fecha_envio"`
}

// Carrier is a logistics provider
type Carrier struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"codigo" json:"codigo" yaml:"codigo"`
	Name      string    `db:"nombre" json:"nombre" yaml:"nombre"`
	Active    bool      `db:"activo" json:"activo" yaml:"activo"`
	CreatedAt time.Time `db:"fecha_creacion" json:"fecha_creacion" yaml:"-"`
}

// Shipment is a carrier-bound delivery for an order
type Shipment struct {
	ID             int64               `db:"id" json:"id"`
	OrderID        int64               `db:"order_id" json:"order_id"`
	CarrierID      *int64              `db:"carrier_id" json:"carrier_id"`
	Cost           decimal.NullDecimal `db:"costo" json:"costo"`
	Currency       string              `db:"moneda" json:"moneda"`
	State          ShipmentState       `db:"estado" json:"estado"`
	TrackingNumber *string             `db:"tracking_number" json:"tracking_number"`
	TrackingURL    *string             `db:"tracking_url" json:"tracking_url"`
	LabelURL       *string             `db:"etiqueta_url" json:"etiqueta_url"`
	EstimatedDays  *int                `db:"dias_estimados" json:"dias_estimados"`
	ProviderID     *string             `db:"proveedor_envio_id" json:"proveedor_envio_id"`
	Metadata       JSONMap             `db:"metadata" json:"metadata"`
	CreatedAt      time.Time           `db:"fecha_creacion" json:"fecha_creacion"`
	UpdatedAt      time.Time           `db:"fecha_actualizacion" json:"fecha_actualizacion"`
	Tracking       []TrackingEvent     `db:"-" json:"tracking,omitempty"`
}

// TrackingEvent is an append-only log entry for a shipment
type TrackingEvent struct {
	ID          int64     `db:"id" json:"id"`
	ShipmentID  int64     `db:"shipment_id" json:"-"`
	State       string    `db:"estado" json:"estado"`
	Description *string   `db:"descripcion" json:"descripcion"`
	OccurredAt  time.Time `db:"fecha_evento" json:"fecha_evento"`
	CreatedAt   time.Time `db:"fecha_creacion" json:"-"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// JSONMap is a free-form JSON object persisted in a jsonb column
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Clone returns a shallow copy, enough for storing provider payloads
func (m JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID  int64
	IsStaff bool
}
