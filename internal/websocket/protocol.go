package websocket

import "encoding/json"

// Wire events exchanged with realtime clients. A client joins a poll's
// broadcast group with joinPoll and then receives pollUpdated events
// carrying result deltas until it disconnects or joins another poll.
const (
	EventJoinPoll    = "joinPoll"
	EventJoinedPoll  = "joinedPoll"
	EventPollUpdated = "pollUpdated"
	EventPing        = "ping"
	EventPong        = "pong"
	EventError       = "error"
)

// Envelope is the framing for every realtime message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into an envelope with the given event name.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}
