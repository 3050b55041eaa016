package server

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/Tyrowin/wsrelay/internal/config"
	"github.com/Tyrowin/wsrelay/internal/relay"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newDetachedClient(t *testing.T, mutate func(*config.Config)) (*Client, *relay.Relay) {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	r := relay.New(log)
	return NewClient(nil, r, "127.0.0.1:12345", cfg, log), r
}

func TestNewClient(t *testing.T) {
	req := require.New(t)
	client, _ := newDetachedClient(t, func(cfg *config.Config) {
		cfg.SendBufferSize = 3
	})

	req.NotNil(client.GetSendChan())
	req.Equal(3, cap(client.GetSendChan()))
	req.NotEqual(relay.ConnID{}, client.id)

	select {
	case <-client.GetSendChan():
		req.Fail("expected empty send channel")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestClient_Send_Refuses_When_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	client, _ := newDetachedClient(t, func(cfg *config.Config) {
		cfg.SendBufferSize = 2
	})

	req.True(client.Send([]byte("a")))
	req.True(client.Send([]byte("b")))
	req.False(client.Send([]byte("c")))

	req.Equal([]byte("a"), <-client.GetSendChan())
	req.True(client.Send([]byte("d")))
}

func TestClient_Send_Refuses_After_Close(t *testing.T) {
	req := require.New(t)
	client, _ := newDetachedClient(t, nil)
	req.True(client.Send([]byte("queued")))

	client.closeSend()
	req.NotPanics(client.closeSend)

	req.False(client.Send([]byte("late")))

	// Queued frames are still drained before the channel reports closed
	frame, ok := <-client.GetSendChan()
	req.True(ok)
	req.Equal([]byte("queued"), frame)
	_, ok = <-client.GetSendChan()
	req.False(ok)
}

func TestClient_Receives_Relay_Broadcasts(t *testing.T) {
	req := require.New(t)
	client, r := newDetachedClient(t, nil)
	r.Attach(client.id, client)

	req.True(client.processMessage([]byte(`{"type":"join","username":"hana"}`)))

	var notice relay.Notice
	req.NoError(json.Unmarshal(<-client.GetSendChan(), &notice))
	req.Equal(relay.SystemSender, notice.Sender)
	req.Equal("hana has joined the chat", notice.Content)
}

func TestClient_ProcessMessage_Drops_Bad_And_Limited_Frames(t *testing.T) {
	req := require.New(t)
	client, r := newDetachedClient(t, func(cfg *config.Config) {
		cfg.RateLimitBurst = 2
		cfg.RateLimitRefillInterval = time.Hour
	})
	r.Attach(client.id, client)

	req.False(client.processMessage([]byte("garbage")))
	req.True(client.processMessage([]byte(`{"type":"message","content":"ok"}`)))
	req.False(client.processMessage([]byte(`{"type":"message","content":"too fast"}`)))

	req.Len(client.GetSendChan(), 1)
}
