package service

import (
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/ws"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("go-retail-pos/internal/service")

// Notifier receives events once the writing transaction has committed.
// *ws.Hub satisfies it.
type Notifier interface {
	Publish(event ws.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(ws.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func eventUser(actor *model.Actor) *ws.EventUser {
	if actor == nil {
		return nil
	}
	return &ws.EventUser{
		ID:    actor.UserID.String(),
		Name:  actor.Name,
		Email: actor.Email,
	}
}

func actorName(actor *model.Actor) string {
	if actor == nil || actor.Name == "" {
		return "Someone"
	}
	return actor.Name
}

// crossedLowStock reports whether a product that moved by delta units
// landed at or below its threshold from above it.
func crossedLowStock(p *model.Product, delta int) bool {
	previous := p.Quantity - delta
	return p.IsLowStock() && previous > p.AlertQuantity
}

func lowStockEvent(p *model.Product) ws.Event {
	return ws.Event{
		Type:   "stock_alert",
		Action: ws.EventLowStockAlert,
		Data: map[string]interface{}{
			"id":             p.ID,
			"sku":            p.SKU,
			"name":           p.Name,
			"quantity":       p.Quantity,
			"alert_quantity": p.AlertQuantity,
		},
		Message: "Low stock: " + p.Name,
	}
}
