// Package catalogv1 is the gRPC contract of the product catalog read API.
//
// Messages are plain Go structs carried with a JSON codec, so clients must call
// with grpc.CallContentSubtype(CodecName). The client returned by NewCatalogServiceClient does this.
package catalogv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of this API ("application/grpc+json").
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}
