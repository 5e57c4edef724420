// Package websocket implements the realtime fan-out hub for poll result deltas.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type pollSubscribers map[*websocket.Conn]*clientWriter

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type subscribeCmd struct {
	baseHubCmd
	pollID       uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type unsubscribeCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type publishCmd struct {
	baseHubCmd
	pollID uuid.UUID
	data   []byte
}

type sendCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	data         []byte
	errorChannel chan error
}

type subscriberCountCmd struct {
	baseHubCmd
	pollID       uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the process-local registry of poll-scoped subscriber groups. All
// state lives inside a single actor goroutine fed by a command channel, so
// subscribe, unsubscribe and publish never race and deltas for one poll
// are delivered in the order Publish was called.
//
// A connection belongs to at most one poll at a time; subscribing again
// moves it to the new poll's group.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	groups            map[uuid.UUID]pollSubscribers
	memberships       map[*websocket.Conn]uuid.UUID
	maxClientsPerPoll int
	done              chan struct{}
}

func NewHub(clock clockwork.Clock, maxClientsPerPoll int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, 256),
		clock:             clock,
		groups:            make(map[uuid.UUID]pollSubscribers),
		memberships:       make(map[*websocket.Conn]uuid.UUID),
		maxClientsPerPoll: maxClientsPerPoll,
		done:              make(chan struct{}),
	}
	go h.run()
	return h
}

// Subscribe adds a connection to a poll's broadcast group, replacing any
// group the connection was in before. Returns an error if the poll's
// subscriber limit is reached.
func (h *Hub) Subscribe(pollID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- subscribeCmd{pollID: pollID, connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("subscribe command timed out after %v", commandTimeout)
	}
}

// Unsubscribe removes a connection from whichever group it is in. Safe to
// call for connections the hub has never seen.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.cmdCh <- unsubscribeCmd{connection: conn}
}

// Publish delivers a result delta to every subscriber of the poll. Nobody
// listening is not an error, and neither is a dead connection mid-send.
func (h *Hub) Publish(pollID uuid.UUID, delta domain.ResultDelta) {
	envelope, err := NewEnvelope(EventPollUpdated, delta)
	if err != nil {
		slog.Error("Failed to marshal result delta", "poll_id", pollID.String(), "error", err)
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "poll_id", pollID.String(), "error", err)
		return
	}
	h.cmdCh <- publishCmd{pollID: pollID, data: data}
}

// SendTo delivers a single message to one subscribed connection through its
// writer goroutine. Returns an error if the connection is not subscribed or
// its send buffer is full.
func (h *Hub) SendTo(conn *websocket.Conn, event string, payload any) error {
	envelope, err := NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	errCh := make(chan error, 1)
	h.cmdCh <- sendCmd{connection: conn, data: data, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("send command timed out after %v", commandTimeout)
	}
}

// SubscriberCount returns the number of connections subscribed to a poll.
// Returns -1 if the command times out.
func (h *Hub) SubscriberCount(pollID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- subscriberCountCmd{pollID: pollID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SubscriberCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all subscriber connections. Blocks until
// the actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case subscribeCmd:
			h.handleSubscribe(c)
		case unsubscribeCmd:
			h.handleUnsubscribe(c.connection)
		case publishCmd:
			h.handlePublish(c)
		case sendCmd:
			h.handleSend(c)
		case subscriberCountCmd:
			c.replyChannel <- len(h.groups[c.pollID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleSubscribe(c subscribeCmd) {
	// One group per connection: a re-subscribe moves the connection.
	if previous, exists := h.memberships[c.connection]; exists {
		if previous == c.pollID {
			c.errorChannel <- nil
			return
		}
		h.detach(c.connection, previous, false)
	}

	subscribers, exists := h.groups[c.pollID]
	if !exists {
		subscribers = make(pollSubscribers)
		h.groups[c.pollID] = subscribers
	}

	if len(subscribers) >= h.maxClientsPerPoll {
		slog.Warn("Rejecting subscriber: max clients reached", "poll_id", c.pollID.String(), "max_clients", h.maxClientsPerPoll)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max subscribers per poll (%d) reached", h.maxClientsPerPoll)
		return
	}

	subscribers[c.connection] = newClientWriter(c.connection, h.clock)
	h.memberships[c.connection] = c.pollID

	metrics.HubActiveSubscribers.Set(float64(len(h.memberships)))
	metrics.HubActivePolls.Set(float64(len(h.groups)))

	slog.Debug("Subscriber joined poll", "poll_id", c.pollID.String(), "total_subscribers", len(subscribers))
	c.errorChannel <- nil
}

func (h *Hub) handleUnsubscribe(conn *websocket.Conn) {
	pollID, exists := h.memberships[conn]
	if !exists {
		return
	}
	h.detach(conn, pollID, true)
	metrics.HubActiveSubscribers.Set(float64(len(h.memberships)))
	metrics.HubActivePolls.Set(float64(len(h.groups)))
}

// detach removes a connection from a group, stopping its writer unless the
// connection is about to be re-homed to another group.
func (h *Hub) detach(conn *websocket.Conn, pollID uuid.UUID, stopWriter bool) {
	subscribers, exists := h.groups[pollID]
	if !exists {
		delete(h.memberships, conn)
		return
	}

	if cw, ok := subscribers[conn]; ok {
		if stopWriter {
			cw.stop()
		} else {
			cw.suspend()
		}
		delete(subscribers, conn)
	}
	delete(h.memberships, conn)

	if len(subscribers) == 0 {
		delete(h.groups, pollID)
		slog.Debug("Last subscriber left poll", "poll_id", pollID.String())
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	subscribers, exists := h.groups[c.pollID]
	if !exists {
		return
	}

	metrics.HubDeltasPublishedTotal.Inc()

	var slow []*websocket.Conn
	for conn, cw := range subscribers {
		select {
		case cw.sendChannel <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow subscriber", "poll_id", c.pollID.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnsubscribe(conn)
	}
}

func (h *Hub) handleSend(c sendCmd) {
	pollID, exists := h.memberships[c.connection]
	if !exists {
		c.errorChannel <- fmt.Errorf("connection is not subscribed")
		return
	}

	cw, ok := h.groups[pollID][c.connection]
	if !ok {
		c.errorChannel <- fmt.Errorf("connection is not subscribed")
		return
	}

	select {
	case cw.sendChannel <- c.data:
		c.errorChannel <- nil
	default:
		c.errorChannel <- fmt.Errorf("subscriber send buffer full")
	}
}

func (h *Hub) handleStop() {
	total := len(h.memberships)
	slog.Info("Hub shutting down", "polls", len(h.groups), "total_subscribers", total)

	for pollID, subscribers := range h.groups {
		for _, cw := range subscribers {
			cw.stopGraceful("Server shutting down")
		}
		delete(h.groups, pollID)
	}
	h.memberships = make(map[*websocket.Conn]uuid.UUID)

	metrics.HubActiveSubscribers.Set(0)
	metrics.HubActivePolls.Set(0)
	slog.Info("Hub shutdown complete", "disconnected_subscribers", total)
}
