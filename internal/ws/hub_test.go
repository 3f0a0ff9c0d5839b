package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_EncodesEnvelope(t *testing.T) {
	hub := NewHub(nil)

	hub.Publish(Event{
		Type:    "stock_update",
		Action:  EventSaleRecorded,
		Data:    map[string]interface{}{"invoice_number": "INV-ABCD1234"},
		Message: "sale recorded",
	})

	msg := <-hub.Broadcast
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "stock_update", got["type"])
	assert.Equal(t, EventSaleRecorded, got["action"])
	assert.Equal(t, "INV-ABCD1234", got["data"].(map[string]interface{})["invoice_number"])
	assert.NotContains(t, got, "user")
}

func TestPublish_DropsWhenFull(t *testing.T) {
	hub := NewHub(nil)

	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Publish(Event{Type: "stock_update", Action: EventStockAdjusted})
	}
	assert.Len(t, hub.Broadcast, broadcastBuffer)
}

func TestRun_StopsOnClose(t *testing.T) {
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	hub.Close()
	hub.Close()
	<-stopped
	assert.Equal(t, 0, hub.ClientCount())
}
