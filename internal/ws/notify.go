package ws

import (
	"encoding/json"
)

const (
	eventError  = "error"
	eventJoined = "joined"
)

// Envelope is the frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

type joinedPayload struct {
	Room string `json:"room"`
}

func encode(event string, data json.RawMessage) ([]byte, error) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

func encodeValue(event string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encode(event, data)
}
