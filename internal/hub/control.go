package hub

import (
	"encoding/json"
	"time"

	"clearpath/internal/events"
)

const (
	errCodeInvalidJSON    = "invalid_json"
	errCodeInvalidPayload = "invalid_payload"
	errCodeUnknownType    = "unknown_message_type"
	errCodeNotFound       = "connection_not_found"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type subscriptionRequest struct {
	SubscriptionType string `json:"subscription_type"`
}

// HandleInbound interprets one raw client message: subscribe, unsubscribe,
// ping, or get_connection_info. Malformed input earns an error envelope and
// nothing more; only transport failures close a connection. Every inbound
// message counts as activity.
func (h *Hub) HandleInbound(connID string, raw []byte) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.touch()

	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(connID, errCodeInvalidJSON, "invalid JSON format")
		return
	}

	switch msg.Type {
	case events.TypeSubscribe:
		topic, ok := decodeSubscription(msg.Data)
		if !ok {
			h.sendError(connID, errCodeInvalidPayload, "subscription_type is required")
			return
		}
		_ = h.Subscribe(connID, topic)
		h.sendSuccess(connID, map[string]any{"subscribed": topic})
	case events.TypeUnsubscribe:
		topic, ok := decodeSubscription(msg.Data)
		if !ok {
			h.sendError(connID, errCodeInvalidPayload, "subscription_type is required")
			return
		}
		_ = h.Unsubscribe(connID, topic)
		h.sendSuccess(connID, map[string]any{"unsubscribed": topic})
	case events.TypePing:
		_ = h.Send(connID, events.NewEnvelope(events.TypePong, events.PongData{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}))
	case events.TypeGetConnectionInfo:
		info, err := h.Info(connID)
		if err != nil {
			h.sendError(connID, errCodeNotFound, "connection not found")
			return
		}
		h.sendSuccess(connID, info)
	default:
		h.sendError(connID, errCodeUnknownType, "unknown message type: "+msg.Type)
	}
}

func decodeSubscription(raw json.RawMessage) (string, bool) {
	var req subscriptionRequest
	if len(raw) == 0 || json.Unmarshal(raw, &req) != nil || req.SubscriptionType == "" {
		return "", false
	}
	return req.SubscriptionType, true
}

func (h *Hub) sendError(connID, code, message string) {
	_ = h.Send(connID, events.NewEnvelope(events.TypeError, events.ErrorData{
		ErrorCode:    code,
		ErrorMessage: message,
	}))
}

func (h *Hub) sendSuccess(connID string, data any) {
	_ = h.Send(connID, events.NewEnvelope(events.TypeSuccess, data))
}
