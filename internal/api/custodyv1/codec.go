// Package custodyv1 holds the wire messages, the service descriptor and the client for
// custody.v1.CustodyService. Messages are plain structs carried by a JSON codec.
package custodyv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype every call on this service uses.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: unmarshal %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CallOption selects the JSON codec for a call. Dial with
// grpc.WithDefaultCallOptions(custodyv1.CallOption()) to use it everywhere.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
