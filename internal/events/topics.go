package events

// Topic constants for domain events emitted by the terminal.
const (
	TopicSaleCompleted = "sale.completed"
	TopicSaleFailed    = "sale.failed"
	TopicCartCleared   = "cart.cleared"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicSaleCompleted,
		TopicSaleFailed,
		TopicCartCleared,
	}
}
