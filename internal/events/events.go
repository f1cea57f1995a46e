// Package events defines the realtime notification contract. Services
// publish through the Publisher interface; the websocket hub is the live
// implementation and tests swap in recording fakes.
package events

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.statusChanged"
	OrderDeleted       = "order.deleted"
	TableOpened        = "table.opened"
	TableClosed        = "table.closed"
	TableCancelled     = "table.cancelled"
	StockChanged       = "stock.changed"
	StockAlert         = "stock.alert"
)

type Publisher interface {
	Publish(event string, payload any)
}
