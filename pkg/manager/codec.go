// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"errors"
	"fmt"

	"github.com/loopholelabs/polyglot/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName selects the polyglot wire encoding on a gRPC channel.
const CodecName = "polyglot"

var (
	MarshalErr = errors.New("unable to marshal message")
)

type encoder interface {
	Encode(buf *polyglot.Buffer)
}

type decoder interface {
	Decode(buf []byte) error
}

func init() {
	encoding.RegisterCodec(codec{})
}

// codec bridges polyglot-encoded messages onto gRPC. Both ends of the
// channel must have it registered, which importing this package does.
type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	e, ok := v.(encoder)
	if !ok {
		return nil, errors.Join(MarshalErr, fmt.Errorf("message %T does not support polyglot encoding", v))
	}
	buf := polyglot.GetBuffer()
	defer polyglot.PutBuffer(buf)
	e.Encode(buf)
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return data, nil
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	d, ok := v.(decoder)
	if !ok {
		return errors.Join(DecodeErr, fmt.Errorf("message %T does not support polyglot decoding", v))
	}
	return d.Decode(data)
}

func (codec) Name() string {
	return CodecName
}
