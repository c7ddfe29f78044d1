package krakengo

import (
	"encoding/json"
)

// EventKind discriminates the sum type yielded by a Session's event
// stream.
type EventKind int

const (
	EventStatus EventKind = iota
	EventHeartbeat
	EventPong
	EventSubscribed
	EventUnsubscribed
	EventChannelData
	EventOrderAck
	EventOrderCancelAck
	EventErrorFrame
	EventReconnecting
	EventReconnected
	EventDisconnected
	EventUnknown
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "Status"
	case EventHeartbeat:
		return "Heartbeat"
	case EventPong:
		return "Pong"
	case EventSubscribed:
		return "Subscribed"
	case EventUnsubscribed:
		return "Unsubscribed"
	case EventChannelData:
		return "ChannelData"
	case EventOrderAck:
		return "OrderAck"
	case EventOrderCancelAck:
		return "OrderCancelAck"
	case EventErrorFrame:
		return "Error"
	case EventReconnecting:
		return "Reconnecting"
	case EventReconnected:
		return "Reconnected"
	case EventDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Event is a single item of a Session's event stream, a Go rendering of
// spec.md's sum type: {Status, Heartbeat, Pong, Subscribed, Unsubscribed,
// ChannelData(raw), OrderAck, OrderCancelAck, Error, Reconnecting,
// Reconnected, Disconnected}. Only the fields relevant to Kind are
// populated; Raw always carries the undecoded frame for ChannelData and
// Unknown events.
type Event struct {
	Kind    EventKind
	Channel string
	Method  string
	ReqID   *int64
	Message string
	Attempt int
	Raw     json.RawMessage
}

// rawFrame is the superset of fields either streaming flavor's frames may
// carry. Kraken's token flavor (v2) discriminates on "channel"/"method";
// the Futures challenge flavor discriminates on "event".
type rawFrame struct {
	Event   string          `json:"event,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Method  string          `json:"method,omitempty"`
	Type    string          `json:"type,omitempty"`
	ReqID   *int64          `json:"req_id,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// classifyFrame inspects a raw frame's discriminators and produces the
// Event it represents. Unknown shapes are never dropped: they surface as
// EventUnknown carrying the raw bytes.
func classifyFrame(raw []byte) Event {
	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{Kind: EventUnknown, Raw: raw}
	}

	switch {
	case f.Event == "challenge":
		return Event{Kind: EventStatus, Method: "challenge", Raw: raw}
	case f.Event == "error" || f.Error != "":
		return Event{Kind: EventErrorFrame, Method: f.Method, Message: firstNonEmpty(f.Error, f.Message), ReqID: f.ReqID, Raw: raw}
	case f.Event == "heartbeat":
		return Event{Kind: EventHeartbeat, Raw: raw}
	case f.Event == "pong" || f.Channel == ChannelPongFrame:
		return Event{Kind: EventPong, Raw: raw}
	case f.Event == "subscribed" || (f.Method == "subscribe" && boolOr(f.Success, true)):
		return Event{Kind: EventSubscribed, Channel: f.Channel, Method: f.Method, ReqID: f.ReqID, Raw: raw}
	case f.Event == "unsubscribed" || (f.Method == "unsubscribe" && boolOr(f.Success, true)):
		return Event{Kind: EventUnsubscribed, Channel: f.Channel, Method: f.Method, ReqID: f.ReqID, Raw: raw}
	case f.Event == "info" || f.Event == "systemStatus":
		return Event{Kind: EventStatus, Method: f.Event, Raw: raw}
	case f.Channel == "executions" || f.Method == "add_order":
		return Event{Kind: EventOrderAck, Channel: f.Channel, Method: f.Method, ReqID: f.ReqID, Raw: raw}
	case f.Method == "cancel_order":
		return Event{Kind: EventOrderCancelAck, Channel: f.Channel, Method: f.Method, ReqID: f.ReqID, Raw: raw}
	case f.Channel != "" || f.Type == "snapshot" || f.Type == "update":
		return Event{Kind: EventChannelData, Channel: f.Channel, Method: f.Method, Raw: raw}
	default:
		return Event{Kind: EventUnknown, Raw: raw}
	}
}

// ChannelPongFrame is the v2 token-flavor channel name used for pong
// frames in response to a "ping" method call.
const ChannelPongFrame = "pong"

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
