package kafka

// Topics сервиса продаж.
const (
	TopicOrderEvents     = "sales.order.events"
	TopicDeadLetterQueue = "sales.dlq"
)

// Kafka headers для retry-логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)
