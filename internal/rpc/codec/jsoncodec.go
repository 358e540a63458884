package codec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const Name = "json"

// JSONCodec carries the event-bus RPC payloads as plain JSON so the service
// needs no generated protobuf code.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return Name
}

func Register() {
	encoding.RegisterCodec(JSONCodec{})
}
