package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "emlakhub-prod"}

	cases := []struct {
		name  string
		input string
		sub   string
		topic string
	}{
		{"short id", "domain-events", "projects/emlakhub-prod/subscriptions/domain-events", "projects/emlakhub-prod/topics/domain-events"},
		{"padded", "  domain-events ", "projects/emlakhub-prod/subscriptions/domain-events", "projects/emlakhub-prod/topics/domain-events"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.sub, c.resourceName(kindSubscription, tc.input))
			assert.Equal(t, tc.topic, c.resourceName(kindTopic, tc.input))
		})
	}

	full := "projects/other/subscriptions/worker"
	assert.Equal(t, full, c.resourceName(kindSubscription, full))
	assert.Equal(t, "projects/emlakhub-prod/topics/"+full, c.resourceName(kindTopic, full), "a subscription path is not a topic path")
	assert.Empty(t, (&Client{}).resourceName(kindTopic, "domain-events"))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("domain-events"))
	assert.Nil(t, c.DomainSubscription())
	assert.Nil(t, (&Client{}).DomainSubscription())
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestClientOptions(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{}))
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}), 1)
}
