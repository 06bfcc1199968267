package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		id:   uuid.New(),
		hub:  hub,
		send: make(chan []byte, buffer),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	client := newTestClient(hub, 1)

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.ConnectedClients())

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_Broadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	client1 := newTestClient(hub, 10)
	client2 := newTestClient(hub, 10)
	hub.register <- client1
	hub.register <- client2
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(string(EventStudentEnrolled), map[string]string{"id": "S1"})

	for _, c := range []*Client{client1, client2} {
		select {
		case msg := <-c.send:
			var event Event
			require.NoError(t, json.Unmarshal(msg, &event))
			assert.Equal(t, EventStudentEnrolled, event.Type)
			assert.Equal(t, map[string]any{"id": "S1"}, event.Data)
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestHub_ReplaysLastCameraStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	hub.Broadcast(string(EventCameraStatus), map[string]string{"camera_status": "Active"})
	hub.Broadcast(string(EventStudentEnrolled), map[string]string{"id": "S1"})
	time.Sleep(50 * time.Millisecond)

	late := newTestClient(hub, 4)
	hub.register <- late

	select {
	case msg := <-late.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventCameraStatus, event.Type)
	case <-time.After(time.Second):
		t.Fatal("camera status was not replayed")
	}
	assert.Empty(t, late.send, "only camera status is replayed")
}

func TestHub_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	slow := newTestClient(hub, 0)
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(string(EventStudentDeleted), nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, 1)
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-client.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_StoppedHubDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	late := newTestClient(hub, 1)
	done := make(chan bool, 1)
	go func() {
		ok := hub.add(late)
		hub.remove(late)
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after hub stopped")
	}
	assert.Equal(t, 0, hub.ConnectedClients())
}

type fakeReader struct {
	status *domain.SystemStatus
	err    error
}

func (f *fakeReader) Camera(ctx context.Context) (*domain.SystemStatus, error) {
	return f.status, f.err
}

func TestStatusWatcher_Poll(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	active := true
	reader := &fakeReader{status: &domain.SystemStatus{Status: "connected", LastUpdate: ts, CameraActive: &active}}
	w := NewStatusWatcher(reader, hub, nil, time.Second)

	assert.True(t, w.Poll(ctx), "first poll always broadcasts")
	assert.False(t, w.Poll(ctx), "unchanged status is not rebroadcast")

	standby := false
	reader.status = &domain.SystemStatus{Status: "connected", LastUpdate: ts, CameraActive: &standby}
	assert.True(t, w.Poll(ctx))

	reader.err = errors.New("offline")
	assert.False(t, w.Poll(ctx))

	reader.err = nil
	reader.status = nil
	assert.True(t, w.Poll(ctx), "missing heartbeat is reported as disconnected")
	assert.Equal(t, domain.StatusDisconnected, w.last.Status)

	// os eventos ficaram na fila do hub
	assert.Len(t, hub.broadcast, 3)
	event := <-hub.broadcast
	assert.Equal(t, EventCameraStatus, event.Type)
}
