package protocol

import (
	"bytes"
	"encoding/json"
	"log"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
)

type inboundFrame struct {
	Type json.RawMessage `json:"type"`
	RFID json.RawMessage `json:"rfid"`
	Mode json.RawMessage `json:"mode"`
}

// Decode parses one inbound text frame.
//
// A missing rfid decodes as the empty tag. A set_mode whose mode is not a
// JSON string keeps the raw JSON text as Mode, so the mode check rejects it
// as an invalid value rather than as a malformed frame.
func Decode(raw []byte) (Envelope, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Envelope{}, apperrors.Wrap(apperrors.CodeProtocolInvalidFrame, "decode frame", err)
	}

	if isAbsent(frame.Type) {
		return Envelope{}, apperrors.New(apperrors.CodeProtocolMissingType, "frame has no type")
	}
	var typ string
	if err := json.Unmarshal(frame.Type, &typ); err != nil {
		return Envelope{}, apperrors.Wrap(apperrors.CodeProtocolInvalidFrame, "frame type is not a string", err)
	}

	switch Type(typ) {
	case TypeRfidScan:
		tag := ""
		if !isAbsent(frame.RFID) {
			if err := json.Unmarshal(frame.RFID, &tag); err != nil {
				return Envelope{}, apperrors.Wrap(apperrors.CodeProtocolInvalidFrame, "rfid is not a string", err)
			}
		}
		return RfidScan(tag), nil
	case TypeSetMode:
		return SetMode(modeText(frame.Mode)), nil
	default:
		return Envelope{}, apperrors.WithMetadata(
			apperrors.CodeProtocolUnknownType,
			"unknown frame type "+typ,
			map[string]string{"Type": typ},
		)
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func modeText(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	var mode string
	if err := json.Unmarshal(raw, &mode); err == nil {
		return mode
	}
	return string(bytes.TrimSpace(raw))
}

// Wire shapes, one per outbound variant. Field order is the order clients see.
type (
	modeFrame struct {
		Type Type   `json:"type"`
		Mode string `json:"mode"`
	}
	tagFrame struct {
		Type Type   `json:"type"`
		RFID string `json:"rfid"`
	}
	tagMessageFrame struct {
		Type    Type   `json:"type"`
		Message string `json:"message"`
		RFID    string `json:"rfid"`
	}
	messageFrame struct {
		Type    Type   `json:"type"`
		Message string `json:"message"`
	}
)

// Encode renders an envelope as a JSON text frame. It never fails: an
// envelope with an unrecognized type is rendered as an error frame.
func Encode(env Envelope) []byte {
	var frame any
	switch env.Type {
	case TypeSetMode:
		frame = modeFrame{Type: env.Type, Mode: env.Mode}
	case TypeRfidScan, TypeAssignRfid, TypeAttendance:
		frame = tagFrame{Type: env.Type, RFID: env.RFID}
	case TypeRfidExists:
		frame = tagMessageFrame{Type: env.Type, Message: env.Message, RFID: env.RFID}
	case TypeError:
		frame = messageFrame{Type: env.Type, Message: env.Message}
	default:
		frame = messageFrame{Type: TypeError, Message: env.Message}
	}
	b, err := json.Marshal(frame)
	if err != nil {
		// Only string fields are marshaled, so this is unreachable in practice.
		log.Printf("hub: encode %s frame: %v", env.Type, err)
		return []byte(`{"type":"error","message":""}`)
	}
	return b
}
