package chat

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Router delivers outbound events to connections. The transport hub
// implements it; tests swap in a recording fake. Delivery is fire-and-forget:
// a recipient that is gone or backed up simply misses the event.
type Router interface {
	Broadcast(payload []byte)
	SendTo(conn uuid.UUID, payload []byte) bool
}

// Dispatcher is the single entry point per connection. It owns the three
// registries, maps each inbound event to its handler, and emits the
// resulting outbound events through the Router. A fresh Dispatcher carries
// fresh state, so tests never share registries.
type Dispatcher struct {
	log      *slog.Logger
	router   Router
	validate *validator.Validate

	sessions      *SessionRegistry
	rooms         *RoomRegistry
	conversations *ConversationStore
}

// NewDispatcher wires a dispatcher with empty registries.
func NewDispatcher(log *slog.Logger, router Router) *Dispatcher {
	return &Dispatcher{
		log:           log,
		router:        router,
		validate:      validator.New(),
		sessions:      NewSessionRegistry(),
		rooms:         NewRoomRegistry(),
		conversations: NewConversationStore(),
	}
}

// Dispatch decodes one inbound frame from conn and runs the matching
// handler. Malformed frames, invalid payloads, and unknown event names are
// logged and dropped; nothing that arrives on the wire may take the process
// down or disturb other connections.
func (d *Dispatcher) Dispatch(conn uuid.UUID, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Debug("dropping malformed frame", "conn", conn, "error", err)
		return
	}

	switch env.Event {
	case EventRegister:
		var p RegisterPayload
		if d.decode(conn, env, &p) {
			d.handleRegister(conn, p)
		}
	case EventGetChatHistory:
		var p HistoryRequest
		if d.decode(conn, env, &p) {
			d.handleGetChatHistory(conn, p)
		}
	case EventMessage:
		var p DirectMessagePayload
		if d.decode(conn, env, &p) {
			d.handleMessage(conn, p)
		}
	case EventCreateRoom:
		var p RoomRequest
		if d.decode(conn, env, &p) {
			d.handleCreateRoom(conn, p)
		}
	case EventJoinRoom:
		var p RoomRequest
		if d.decode(conn, env, &p) {
			d.handleJoinRoom(conn, p)
		}
	case EventLeaveRoom:
		var p RoomRequest
		if d.decode(conn, env, &p) {
			d.handleLeaveRoom(conn, p)
		}
	case EventRoomMessage:
		var p RoomMessagePayload
		if d.decode(conn, env, &p) {
			d.handleRoomMessage(conn, p)
		}
	case EventGetRoomHistory:
		var p RoomRequest
		if d.decode(conn, env, &p) {
			d.handleGetRoomHistory(conn, p)
		}
	default:
		d.log.Debug("dropping unknown event", "conn", conn, "event", env.Event)
	}
}

// HandleDisconnect reaps all state derived from conn: its session and every
// room membership. Presence and room-list broadcasts follow only when the
// connection actually held state, so anonymous connects stay silent.
func (d *Dispatcher) HandleDisconnect(conn uuid.UUID) {
	username, hadSession := d.sessions.UsernameFor(conn)
	if hadSession {
		d.sessions.Unregister(conn)
	}
	left := d.rooms.RemoveConnection(conn)

	if !hadSession && !left {
		return
	}

	d.log.Info("connection cleaned up", "conn", conn, "username", username)
	d.broadcastUserList()
	d.broadcastRoomList()
}

func (d *Dispatcher) decode(conn uuid.UUID, env Envelope, v any) bool {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		d.log.Debug("dropping undecodable payload", "conn", conn, "event", env.Event, "error", err)
		return false
	}
	if err := d.validate.Struct(v); err != nil {
		d.log.Debug("dropping invalid payload", "conn", conn, "event", env.Event, "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) handleRegister(conn uuid.UUID, p RegisterPayload) {
	if err := d.sessions.Register(conn, p.Username); err != nil {
		d.emit(conn, EventRegistrationResponse, RegistrationResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	d.log.Info("user registered", "conn", conn, "username", p.Username)
	d.broadcastUserList()
	d.broadcastRoomList()
	d.emit(conn, EventRegistrationResponse, RegistrationResponse{Success: true})
}

func (d *Dispatcher) handleGetChatHistory(conn uuid.UUID, p HistoryRequest) {
	entries := d.conversations.History(p.Sender, p.Receiver)
	d.emit(conn, EventChatHistory, ChatHistoryPayload{
		Sender:   p.Sender,
		Receiver: p.Receiver,
		History:  lo.Map(entries, func(e MessageEntry, _ int) WireMessage { return toWireMessage(e) }),
	})
}

// handleMessage stores and delivers a direct message. Both parties must be
// live; otherwise the event drops silently, matching the at-most-once,
// fire-and-forget contract. The sender gets no echo since it already holds
// the text.
func (d *Dispatcher) handleMessage(conn uuid.UUID, p DirectMessagePayload) {
	_, senderOnline := d.sessions.Resolve(p.Sender)
	receiverConn, receiverOnline := d.sessions.Resolve(p.Receiver)
	if !senderOnline || !receiverOnline {
		d.log.Debug("dropping message", "conn", conn,
			"sender", p.Sender, "receiver", p.Receiver, "error", ErrPeerUnavailable)
		return
	}

	entry := d.conversations.Append(p.Sender, p.Receiver, p.Message)
	d.emit(receiverConn, EventMessage, toWireMessage(entry))
}

func (d *Dispatcher) handleCreateRoom(conn uuid.UUID, p RoomRequest) {
	if err := d.rooms.Create(p.RoomName); err != nil {
		d.emit(conn, EventCreateRoomError, err.Error())
		return
	}

	d.log.Info("room created", "conn", conn, "room", p.RoomName)
	d.broadcastRoomList()
}

func (d *Dispatcher) handleJoinRoom(conn uuid.UUID, p RoomRequest) {
	if err := d.rooms.Join(p.RoomName, conn); err != nil {
		// Joining an absent room is swallowed, not surfaced.
		d.log.Debug("ignoring join", "conn", conn, "room", p.RoomName, "error", err)
		return
	}
	d.broadcastRoomList()
}

func (d *Dispatcher) handleLeaveRoom(conn uuid.UUID, p RoomRequest) {
	if d.rooms.Leave(p.RoomName, conn) {
		d.broadcastRoomList()
	}
}

// handleRoomMessage fans a message out to every current member of the room,
// the sender included. Only registered members may post; everything else
// drops silently like direct messages do.
func (d *Dispatcher) handleRoomMessage(conn uuid.UUID, p RoomMessagePayload) {
	sender, registered := d.sessions.UsernameFor(conn)
	if !registered {
		d.log.Debug("dropping room message from anonymous connection", "conn", conn, "room", p.RoomName)
		return
	}

	members, ok := d.rooms.Members(p.RoomName)
	if !ok || !lo.Contains(members, conn) {
		d.log.Debug("dropping room message", "conn", conn, "room", p.RoomName, "error", ErrRoomNotFound)
		return
	}

	entry := d.conversations.AppendRoom(p.RoomName, sender, p.Message)
	payload, err := encodeEvent(EventRoomMessage, toRoomWireMessage(entry))
	if err != nil {
		d.log.Error("encoding room message failed", "room", p.RoomName, "error", err)
		return
	}
	for _, member := range members {
		d.router.SendTo(member, payload)
	}
}

func (d *Dispatcher) handleGetRoomHistory(conn uuid.UUID, p RoomRequest) {
	entries := d.conversations.RoomHistory(p.RoomName)
	d.emit(conn, EventRoomHistory, RoomHistoryPayload{
		RoomName: p.RoomName,
		History:  lo.Map(entries, func(e MessageEntry, _ int) RoomWireMessage { return toRoomWireMessage(e) }),
	})
}

func (d *Dispatcher) broadcastUserList() {
	d.broadcast(EventUserList, d.sessions.Usernames())
}

func (d *Dispatcher) broadcastRoomList() {
	d.broadcast(EventChatRoomList, d.roomViews())
}

// roomViews projects the room registry for the wire, resolving member
// connections to usernames. Members without a session are left out of the
// users mapping but still count as members.
func (d *Dispatcher) roomViews() []RoomView {
	return lo.Map(d.rooms.Memberships(), func(m RoomMembers, _ int) RoomView {
		users := make(map[string]string, len(m.Members))
		for _, member := range m.Members {
			if username, ok := d.sessions.UsernameFor(member); ok {
				users[member.String()] = username
			}
		}
		return RoomView{RoomName: m.Name, Users: users}
	})
}

func (d *Dispatcher) emit(conn uuid.UUID, event string, payload any) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		d.log.Error("encoding event failed", "event", event, "error", err)
		return
	}
	d.router.SendTo(conn, raw)
}

func (d *Dispatcher) broadcast(event string, payload any) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		d.log.Error("encoding broadcast failed", "event", event, "error", err)
		return
	}
	d.router.Broadcast(raw)
}

func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{Event: event, Payload: payload})
}
