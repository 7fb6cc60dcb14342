package logging

import (
	"sort"

	"github.com/go-logr/logr"
)

// LogAuditEvent logs a structured audit event for writes the operator performs on
// managed objects. Audit events are tagged with "audit=true" so they can be split
// from regular logs. Fields are emitted in key order.
func LogAuditEvent(logger logr.Logger, eventType string, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	kvs := make([]any, 0, 4+2*len(keys))
	kvs = append(kvs, "audit", "true", "event_type", eventType)
	for _, key := range keys {
		kvs = append(kvs, key, fields[key])
	}
	logger.WithValues(kvs...).Info("Operator audit event")
}
