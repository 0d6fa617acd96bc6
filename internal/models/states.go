package models

// ProductCondition of a listed item
type ProductCondition string

const (
	ConditionNew         ProductCondition = "Nuevo"
	ConditionUsed        ProductCondition = "Usado"
	ConditionRefurbished ProductCondition = "Reacondicionado"
)

// Valid reports whether c is a known condition
func (c ProductCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// ProductState of a catalog listing. Removed is terminal.
type ProductState string

const (
	ProductActive  ProductState = "Activo"
	ProductPaused  ProductState = "Pausado"
	ProductSold    ProductState = "Vendido"
	ProductRemoved ProductState = "Eliminado"
)

// Valid reports whether s is a known product state
func (s ProductState) Valid() bool {
	switch s {
	case ProductActive, ProductPaused, ProductSold, ProductRemoved:
		return true
	}
	return false
}

// VendorSettable reports whether a vendor may set s directly through an update.
// Sold is only reached through orders and Removed only through delete.
func (s ProductState) VendorSettable() bool {
	return s == ProductActive || s == ProductPaused
}

// OrderState of a purchase
type OrderState string

const (
	OrderPending   OrderState = "Pendiente"
	OrderConfirmed OrderState = "Confirmada"
	OrderShipped   OrderState = "Enviada"
	OrderDelivered OrderState = "Entregada"
	OrderCancelled OrderState = "Cancelada"
	OrderRejected  OrderState = "Rechazada"
)

// OrderStates lists every order state in lifecycle order
var OrderStates = []OrderState{
	OrderPending,
	OrderConfirmed,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
	OrderRejected,
}

// orderTransitions is the order state machine. Sellers may currently move an
// order from any state to any other state; tightening the policy means
// editing this table.
var orderTransitions = func() map[OrderState]map[OrderState]bool {
	table := make(map[OrderState]map[OrderState]bool, len(OrderStates))
	for _, from := range OrderStates {
		table[from] = make(map[OrderState]bool, len(OrderStates))
		for _, to := range OrderStates {
			table[from][to] = true
		}
	}
	return table
}()

// Valid reports whether s is a known order state
func (s OrderState) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order in state from may move to state to
func CanTransition(from, to OrderState) bool {
	return orderTransitions[from][to]
}

// OfferState of a price proposal. Only Pending offers can be answered.
type OfferState string

const (
	OfferPending  OfferState = "Pendiente"
	OfferAccepted OfferState = "Aceptada"
	OfferRejected OfferState = "Rechazada"
	OfferExpired  OfferState = "Expirada"
)

// OfferDecision is the vendor's answer to an offer
type OfferDecision string

const (
	DecisionAccept OfferDecision = "aceptar"
	DecisionReject OfferDecision = "rechazar"
)

// Valid reports whether d is accept or reject
func (d OfferDecision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// ShipmentState of a delivery. Values coming from carrier webhooks are stored as sent.
type ShipmentState string

const (
	ShipmentPending    ShipmentState = "Pendiente"
	ShipmentQuoted     ShipmentState = "Cotizado"
	ShipmentCreated    ShipmentState = "Creado"
	ShipmentDispatched ShipmentState = "Despachado"
	ShipmentInTransit  ShipmentState = "En camino"
	ShipmentDelivered  ShipmentState = "Entregado"
	ShipmentCancelled  ShipmentState = "Cancelado"
	ShipmentError      ShipmentState = "Error"
)

// DefaultTrackingState labels tracking events whose payload carries no state
const DefaultTrackingState = "Actualizado"
