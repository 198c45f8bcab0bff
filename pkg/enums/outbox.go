package enums

import "slices"

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventOrderLogisticsUpdated OutboxEventType = "order_logistics_updated"
	EventOrderAfterSaleUpdated OutboxEventType = "order_after_sale_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderLogisticsUpdated,
	EventOrderAfterSaleUpdated,
}

func (e OutboxEventType) String() string {
	return string(e)
}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseEnum(validOutboxEventTypes, "event type", value)
}
