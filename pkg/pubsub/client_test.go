package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/farm/topics/orders", topicResourceName("farm", "orders"))
	assert.Equal(t, "projects/other/topics/orders", topicResourceName("farm", "projects/other/topics/orders"))
	assert.Equal(t, "", topicResourceName("farm", "  "))
	assert.Equal(t, "", topicResourceName("", "orders"))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(t.Context()))
}
