package protocol

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Envelope
	}{
		{name: "scan", raw: `{"type":"rfid_scan","rfid":"ABC123"}`, want: RfidScan("ABC123")},
		{name: "scan empty tag", raw: `{"type":"rfid_scan","rfid":""}`, want: RfidScan("")},
		{name: "scan missing tag", raw: `{"type":"rfid_scan"}`, want: RfidScan("")},
		{name: "scan null tag", raw: `{"type":"rfid_scan","rfid":null}`, want: RfidScan("")},
		{name: "set mode assign", raw: `{"type":"set_mode","mode":"assign"}`, want: SetMode("assign")},
		{name: "set mode bogus", raw: `{"type":"set_mode","mode":"bogus"}`, want: SetMode("bogus")},
		{name: "set mode missing", raw: `{"type":"set_mode"}`, want: SetMode("")},
		{name: "set mode number keeps raw text", raw: `{"type":"set_mode","mode":42}`, want: SetMode("42")},
		{name: "extra fields ignored", raw: `{"type":"rfid_scan","rfid":"Z9","reader":"door-1"}`, want: RfidScan("Z9")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code apperrors.Code
	}{
		{name: "not json", raw: `rfid ABC`, code: apperrors.CodeProtocolInvalidFrame},
		{name: "empty", raw: ``, code: apperrors.CodeProtocolInvalidFrame},
		{name: "array", raw: `[1,2]`, code: apperrors.CodeProtocolInvalidFrame},
		{name: "missing type", raw: `{"rfid":"ABC"}`, code: apperrors.CodeProtocolMissingType},
		{name: "null type", raw: `{"type":null}`, code: apperrors.CodeProtocolMissingType},
		{name: "json null", raw: `null`, code: apperrors.CodeProtocolMissingType},
		{name: "numeric type", raw: `{"type":7}`, code: apperrors.CodeProtocolInvalidFrame},
		{name: "unknown type", raw: `{"type":"ping"}`, code: apperrors.CodeProtocolUnknownType},
		{name: "empty type", raw: `{"type":""}`, code: apperrors.CodeProtocolUnknownType},
		{name: "outbound type", raw: `{"type":"attendance","rfid":"Z9"}`, code: apperrors.CodeProtocolUnknownType},
		{name: "numeric rfid", raw: `{"type":"rfid_scan","rfid":123}`, code: apperrors.CodeProtocolInvalidFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected decode error")
			}
			if !errors.Is(err, apperrors.New(tt.code, "")) {
				t.Fatalf("Decode() error code = %q, want %q", apperrors.GetCode(err), tt.code)
			}
		})
	}
}

func TestEncodeOutbound(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{name: "set mode", env: SetMode("attendance"), want: `{"type":"set_mode","mode":"attendance"}`},
		{name: "assign", env: AssignRfid("ABC123"), want: `{"type":"assign_rfid","rfid":"ABC123"}`},
		{name: "exists", env: RfidExists("ABC123"), want: `{"type":"rfid_exists","message":"RFID already assigned","rfid":"ABC123"}`},
		{name: "attendance", env: Attendance("Z9"), want: `{"type":"attendance","rfid":"Z9"}`},
		{name: "attendance empty tag", env: Attendance(""), want: `{"type":"attendance","rfid":""}`},
		{name: "error", env: Error("Invalid mode value"), want: `{"type":"error","message":"Invalid mode value"}`},
		{name: "unknown type renders as error", env: Envelope{Type: "nope", Message: "x"}, want: `{"type":"error","message":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.env)); got != tt.want {
				t.Fatalf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeScanDecodes(t *testing.T) {
	got, err := Decode(Encode(RfidScan("A1")))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != RfidScan("A1") {
		t.Fatalf("Decode() = %+v, want %+v", got, RfidScan("A1"))
	}
}

func TestTypeInbound(t *testing.T) {
	for _, typ := range []Type{TypeRfidScan, TypeSetMode} {
		if !typ.Inbound() {
			t.Fatalf("%s should be inbound", typ)
		}
	}
	for _, typ := range []Type{TypeAssignRfid, TypeRfidExists, TypeAttendance, TypeError} {
		if typ.Inbound() {
			t.Fatalf("%s should be outbound only", typ)
		}
	}
}
