package enums

// OutboxEventType names events emitted through the transactional outbox.
type OutboxEventType string

const (
	EventOrderCreated   OutboxEventType = "order.created"
	EventPointsAccrued  OutboxEventType = "points.accrued"
	EventPointsAdjusted OutboxEventType = "points.adjusted"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateCart             OutboxAggregateType = "cart"
	AggregateOrder            OutboxAggregateType = "order"
	AggregatePointsAdjustment OutboxAggregateType = "points_adjustment"
)
