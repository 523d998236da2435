package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo", "foo_9999999_P"},
		{"foo_P", "foo_9999999_P"},
		{"foo_9999999_P", "foo_9999999_P"},
		{"bar_P_P", "bar_P_9999999_P"},
		{"", "_9999999_P"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Reconcile(tt.in), tt.in)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	for _, name := range []string{"foo", "foo_P", "foo_9999999_P", "bar_P_P", "x_9999999_P_P"} {
		once := Reconcile(name)
		assert.Equal(t, once, Reconcile(once), name)
		// The upgrade path never yields the degenerate double suffix.
		assert.NotContains(t, once, "_P_9999999_P_9999999_P")
	}
}
