package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNATSPublisher_Subject(t *testing.T) {
	assert.Equal(t, "cop.alerts.status", (&NATSPublisher{prefix: "cop"}).Subject("alerts.status"))
	assert.Equal(t, "cop.alerts.status", (&NATSPublisher{prefix: "cop."}).Subject("alerts.status"))
	assert.Equal(t, "alerts.status", (&NATSPublisher{}).Subject("alerts.status"))
}
