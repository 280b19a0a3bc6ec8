package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec selects how server frames are serialized for one connection.
type Codec uint8

const (
	CodecJSON Codec = iota
	CodecMsgpack
)

// ParseCodec maps a connection's ?codec= query value; anything unknown is JSON.
func ParseCodec(s string) Codec {
	if s == "msgpack" {
		return CodecMsgpack
	}
	return CodecJSON
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope type nil")
	}
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var e = Envelope{t, pb}

	return json.Marshal(e)

}

// EncodeWith encodes with the given codec. Msgpack frames reuse the json
// struct tags so both encodings carry the same field names.
func EncodeWith(c Codec, t string, payload any) ([]byte, error) {
	if c != CodecMsgpack {
		return Encode(t, payload)
	}
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope type nil")
	}
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(binaryEnvelope{T: t, P: payload}); err != nil {
		return nil, fmt.Errorf("msgpack encode %q: %w", t, err)
	}
	return buf.Bytes(), nil
}

type binaryEnvelope struct {
	T string `json:"t"`
	P any    `json:"p"`
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("Error trying to decode Envelope with byte size 0")
	}
	var e Envelope
	err := json.Unmarshal(b, &e)
	if err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err

}

// DecodeBinary splits a msgpack frame into its type and decodes the payload
// into T.
func DecodeBinary[T any](b []byte) (string, T, error) {
	var out T
	var raw struct {
		T string             `json:"t"`
		P msgpack.RawMessage `json:"p"`
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&raw); err != nil {
		return "", out, fmt.Errorf("msgpack envelope: %w", err)
	}
	pd := msgpack.NewDecoder(bytes.NewReader(raw.P))
	pd.SetCustomStructTag("json")
	if err := pd.Decode(&out); err != nil {
		return raw.T, out, fmt.Errorf("msgpack payload %q: %w", raw.T, err)
	}
	return raw.T, out, nil
}

// Frame is an inbound envelope whose payload is still encoded.
type Frame struct {
	T     string
	codec Codec
	json  json.RawMessage
	bin   msgpack.RawMessage
}

// DecodeFrame reads the envelope of a client frame in the given codec.
func DecodeFrame(c Codec, b []byte) (Frame, error) {
	if c != CodecMsgpack {
		env, err := DecodeEnvelope(b)
		if err != nil {
			return Frame{}, err
		}
		return Frame{T: env.T, codec: CodecJSON, json: env.P}, nil
	}
	var raw struct {
		T string             `json:"t"`
		P msgpack.RawMessage `json:"p"`
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&raw); err != nil {
		return Frame{}, fmt.Errorf("msgpack envelope: %w", err)
	}
	return Frame{T: raw.T, codec: CodecMsgpack, bin: raw.P}, nil
}

// PayloadOf decodes the frame's payload as T. An absent payload yields the
// zero T.
func PayloadOf[T any](f Frame) (T, error) {
	var out T
	if f.codec == CodecMsgpack {
		if len(f.bin) == 0 {
			return out, nil
		}
		dec := msgpack.NewDecoder(bytes.NewReader(f.bin))
		dec.SetCustomStructTag("json")
		err := dec.Decode(&out)
		return out, err
	}
	if len(f.json) == 0 {
		return out, nil
	}
	return DecodePayload[T](Envelope{T: f.T, P: f.json})
}
