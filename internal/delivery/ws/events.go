package ws

import (
	json "github.com/goccy/go-json"
)

// Event names are the wire contract with the front end. Client-to-server and
// server-to-client events share the envelope {"event": ..., "data": ...}.
const (
	// client -> server
	EventUserConnected  = "user_connected" // also the server->client join announcement
	EventUpdateActivity = "update_activity"
	EventSendMessage    = "send_message"

	// server -> client
	EventUsersOnline      = "users_online"
	EventUserDisconnected = "user_disconnected"
	EventActivities       = "activities"
	EventActivityUpdated  = "activity_updated"
	EventMessageSent      = "message_sent"
	EventReceiveMessage   = "receive_message"
	EventError            = "error"
)

// Error codes carried by the error event.
const (
	ErrCodeValidation   = "validation_error"
	ErrCodeInvalidState = "invalid_state"
	ErrCodeStore        = "store_error"
)

// Envelope is the framing for every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ActivityUpdatedPayload announces a single activity change.
type ActivityUpdatedPayload struct {
	UserID   string `json:"userId"`
	Activity string `json:"activity"`
}

// UpdateActivityPayload is the client request to change its activity.
type UpdateActivityPayload struct {
	Activity string `json:"activity"`
}

// SendMessagePayload is the client request to relay a direct message.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	SenderID   string `json:"senderId"`
	Content    string `json:"content"`
}

// ErrorPayload is reported back to the connection that caused a failure.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encodeEvent marshals an envelope around the given payload.
func encodeEvent(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
