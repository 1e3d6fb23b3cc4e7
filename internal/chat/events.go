package chat

import "encoding/json"

// Inbound event names. Disconnect is not on this list: it is signaled by the
// transport layer when a connection closes, not carried on the wire.
const (
	EventRegister       = "register"
	EventGetChatHistory = "getChatHistory"
	EventMessage        = "message"
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventRoomMessage    = "roomMessage"
	EventGetRoomHistory = "getRoomHistory"
)

// Outbound event names.
const (
	EventRegistrationResponse = "registrationResponse"
	EventUserList             = "userList"
	EventChatRoomList         = "chatRoomList"
	EventChatHistory          = "chatHistory"
	EventCreateRoomError      = "createRoomError"
	EventRoomHistory          = "roomHistory"
)

// Envelope is the wire frame for inbound events: a type tag plus an opaque
// payload decoded by the matching handler.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// RegisterPayload asks to bind a display name to the sending connection.
type RegisterPayload struct {
	Username string `json:"username" validate:"required"`
}

// HistoryRequest asks for the merged conversation between two users.
type HistoryRequest struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
}

// DirectMessagePayload carries a direct message between two named users.
type DirectMessagePayload struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
	Message  string `json:"message"`
}

// RoomRequest names a room for create, join, leave, and history events.
type RoomRequest struct {
	RoomName string `json:"roomName" validate:"required"`
}

// RoomMessagePayload carries a message to every member of a room. The sender
// is resolved from the sending connection's session, not trusted from the
// payload.
type RoomMessagePayload struct {
	RoomName string `json:"roomName" validate:"required"`
	Message  string `json:"message"`
}

// RegistrationResponse acknowledges a register event to its caller.
type RegistrationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RoomView is the public projection of one room: its name plus a mapping of
// member connection id to username. Members that have not registered a name
// yet are omitted from the mapping.
type RoomView struct {
	RoomName string            `json:"roomName"`
	Users    map[string]string `json:"users"`
}

// WireMessage is the serialized form of a MessageEntry. The timestamp is an
// epoch-millisecond instant assigned server-side.
type WireMessage struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ChatHistoryPayload answers a getChatHistory request.
type ChatHistoryPayload struct {
	Sender   string        `json:"sender"`
	Receiver string        `json:"receiver"`
	History  []WireMessage `json:"history"`
}

// RoomWireMessage is the serialized form of one room log entry.
type RoomWireMessage struct {
	RoomName  string `json:"roomName"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// RoomHistoryPayload answers a getRoomHistory request.
type RoomHistoryPayload struct {
	RoomName string            `json:"roomName"`
	History  []RoomWireMessage `json:"history"`
}

func toWireMessage(entry MessageEntry) WireMessage {
	return WireMessage{
		Sender:    entry.Sender,
		Receiver:  entry.Receiver,
		Message:   entry.Body,
		Timestamp: entry.Timestamp.UnixMilli(),
	}
}

func toRoomWireMessage(entry MessageEntry) RoomWireMessage {
	return RoomWireMessage{
		RoomName:  entry.Receiver,
		Sender:    entry.Sender,
		Message:   entry.Body,
		Timestamp: entry.Timestamp.UnixMilli(),
	}
}
