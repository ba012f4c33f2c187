package models

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "payee"
	StatusPreparing      OrderStatus = "en_preparation"
	StatusReady          OrderStatus = "prete"
	StatusShipped        OrderStatus = "expediee"
	StatusInDelivery     OrderStatus = "en_livraison"
	StatusDelivered      OrderStatus = "livree"
	StatusCollected      OrderStatus = "recuperee"
	StatusCancelled      OrderStatus = "annulee"
)

// AllOrderStatuses lists the enumerated set in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusPaid,
	StatusPreparing,
	StatusReady,
	StatusShipped,
	StatusInDelivery,
	StatusDelivered,
	StatusCollected,
	StatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	StatusPendingPayment: "En attente de paiement",
	StatusPaid:           "Payée",
	StatusPreparing:      "En préparation",
	StatusReady:          "Prête à être récupérée",
	StatusShipped:        "Expédiée",
	StatusInDelivery:     "En cours de livraison",
	StatusDelivered:      "Livrée",
	StatusCollected:      "Récupérée",
	StatusCancelled:      "Annulée",
}

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPendingPayment: {StatusPaid: true, StatusCancelled: true},
	StatusPaid:           {StatusPreparing: true},
	StatusPreparing:      {StatusReady: true, StatusShipped: true},
	StatusReady:          {StatusCollected: true},
	StatusShipped:        {StatusInDelivery: true},
	StatusInDelivery:     {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCollected:      {},
	StatusCancelled:      {},
}

// ParseOrderStatus accepts only members of the enumerated set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validNext[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// Label is the customer-facing name of the status.
func (s OrderStatus) Label() string {
	return statusLabels[s]
}

func (s OrderStatus) String() string {
	return string(s)
}
