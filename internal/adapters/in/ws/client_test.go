package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newQueueOnlyClient() *Client {
	return &Client{
		id:   "conn-1",
		send: make(chan []byte, sendQueueSize),
	}
}

// A disconnect can race frames still in flight from forward goroutines; the
// queue must absorb that without a send on a closed channel.
func TestClient_Enqueue_ConcurrentWithCloseSend(t *testing.T) {
	for i := 0; i < 200; i++ {
		client := newQueueOnlyClient()

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for j := 0; j < sendQueueSize; j++ {
				client.enqueue([]byte(`{"type":"location-update"}`))
			}
		}()
		go func() {
			defer wg.Done()
			client.closeSend()
		}()

		wg.Wait()

		assert.False(t, client.enqueue([]byte("late frame")))
	}
}

func TestClient_CloseSend_Idempotent(t *testing.T) {
	client := newQueueOnlyClient()

	client.closeSend()
	client.closeSend()

	_, open := <-client.send
	assert.False(t, open)
}

func TestClient_Enqueue_ReportsFullQueue(t *testing.T) {
	client := newQueueOnlyClient()

	for i := 0; i < sendQueueSize; i++ {
		assert.True(t, client.enqueue([]byte("frame")))
	}

	assert.False(t, client.enqueue([]byte("overflow")))
}
