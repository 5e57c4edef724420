package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwave/pollwave/internal/domain"
	wsproto "github.com/pollwave/pollwave/internal/websocket"
)

func dialTestServer(t *testing.T, appSvc *mockAppService) *ws.Conn {
	t.Helper()

	srv, _ := testServer(t, appSvc)
	httpSrv := httptest.NewServer(srv.echo)
	t.Cleanup(func() { httpSrv.Close() })

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEnvelope(t *testing.T, conn *ws.Conn, event string, payload any) {
	t.Helper()
	envelope, err := wsproto.NewEnvelope(event, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(envelope))
}

func receiveEnvelope(t *testing.T, conn *ws.Conn) wsproto.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope wsproto.Envelope
	require.NoError(t, json.Unmarshal(msg, &envelope))
	return envelope
}

func TestWebSocketJoinPollAcksWithSnapshot(t *testing.T) {
	pollID := uuid.New()
	snapshot := &domain.ResultSnapshot{PollID: pollID, Title: "Favorite season?", TotalVotes: 2}
	conn := dialTestServer(t, &mockAppService{
		resultsFn: func(_ context.Context, gotPoll uuid.UUID) (*domain.ResultSnapshot, error) {
			assert.Equal(t, pollID, gotPoll)
			return snapshot, nil
		},
	})

	sendEnvelope(t, conn, wsproto.EventJoinPoll, map[string]string{"pollId": pollID.String()})

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventJoinedPoll, envelope.Event)

	var got domain.ResultSnapshot
	require.NoError(t, json.Unmarshal(envelope.Data, &got))
	assert.Equal(t, pollID, got.PollID)
	assert.Equal(t, 2, got.TotalVotes)
}

func TestWebSocketJoinUnknownPoll(t *testing.T) {
	conn := dialTestServer(t, &mockAppService{})

	sendEnvelope(t, conn, wsproto.EventJoinPoll, map[string]string{"pollId": uuid.NewString()})

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventError, envelope.Event)
}

func TestWebSocketJoinWithoutPollID(t *testing.T) {
	conn := dialTestServer(t, &mockAppService{})

	sendEnvelope(t, conn, wsproto.EventJoinPoll, map[string]string{})

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventError, envelope.Event)
}

func TestWebSocketPingPong(t *testing.T) {
	conn := dialTestServer(t, &mockAppService{})

	sendEnvelope(t, conn, wsproto.EventPing, nil)

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventPong, envelope.Event)
}

func TestWebSocketPingPongAfterJoin(t *testing.T) {
	pollID := uuid.New()
	conn := dialTestServer(t, &mockAppService{
		resultsFn: func(context.Context, uuid.UUID) (*domain.ResultSnapshot, error) {
			return &domain.ResultSnapshot{PollID: pollID}, nil
		},
	})

	sendEnvelope(t, conn, wsproto.EventJoinPoll, map[string]string{"pollId": pollID.String()})
	require.Equal(t, wsproto.EventJoinedPoll, receiveEnvelope(t, conn).Event)

	sendEnvelope(t, conn, wsproto.EventPing, nil)
	assert.Equal(t, wsproto.EventPong, receiveEnvelope(t, conn).Event)
}

func TestWebSocketUnknownEvent(t *testing.T) {
	conn := dialTestServer(t, &mockAppService{})

	sendEnvelope(t, conn, "shout", nil)

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventError, envelope.Event)
}

func TestWebSocketMalformedMessage(t *testing.T) {
	conn := dialTestServer(t, &mockAppService{})

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("not json")))

	envelope := receiveEnvelope(t, conn)
	assert.Equal(t, wsproto.EventError, envelope.Event)
}
