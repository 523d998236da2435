package install

import "strings"

// Reconcile normalizes a mod base name to the load-order suffix form:
// names already carrying the suffix pass through, a trailing _P is
// upgraded in place, anything else gets the suffix appended.
// Idempotent.
func Reconcile(name string) string {
	if strings.HasSuffix(name, LoadOrderSuffix) {
		return name
	}
	if trimmed, ok := strings.CutSuffix(name, "_P"); ok {
		return trimmed + LoadOrderSuffix
	}
	return name + LoadOrderSuffix
}
