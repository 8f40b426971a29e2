package replayv1

import (
	"github.com/sugawarayuuta/sonnet"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of Codec.
const CodecName = "json"

// Codec marshals replay messages as JSON.
type Codec struct{}

// Marshal encodes v as JSON.
func (Codec) Marshal(v interface{}) ([]byte, error) {
	return sonnet.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (Codec) Unmarshal(data []byte, v interface{}) error {
	return sonnet.Unmarshal(data, v)
}

// Name returns CodecName.
func (Codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(Codec{})
}
