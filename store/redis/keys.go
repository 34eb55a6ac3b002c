package redis

// Key prefixes for primary entity storage.
const (
	prefixWebhook    = "fanout:wh:"
	prefixProject    = "fanout:proj:"
	prefixDelivery   = "fanout:del:"
	prefixDeadLetter = "fanout:dlq:"
)

// Key prefixes for sorted set indexes, scored by creation or failure time.
const (
	zWebhookProject = "fanout:z:wh:proj:"  // + project ID
	zDeliveryWh     = "fanout:z:del:wh:"   // + webhook ID
	zDLQAll         = "fanout:z:dlq:all"
	zDLQProject     = "fanout:z:dlq:proj:" // + project ID
	zDLQWebhook     = "fanout:z:dlq:wh:"   // + webhook ID
)

// Key prefixes for set indexes and counters.
const (
	sWebhookEnabled = "fanout:s:wh:proj:" // + projectID + ":enabled"
	cDeliveryStatus = "fanout:c:del:"     // + status
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// enabledSetKey returns the set key for enabled webhooks of a project.
func enabledSetKey(projectID string) string {
	return sWebhookEnabled + projectID + ":enabled"
}

// statusCounterKey returns the counter key for a delivery status.
func statusCounterKey(status string) string {
	return cDeliveryStatus + status
}
