// Package protocol encodes and decodes the JSON envelopes exchanged with kiosk
// bridges and admin clients.
package protocol

// Type is the envelope discriminator carried in the "type" field.
type Type string

const (
	// Inbound
	TypeRfidScan Type = "rfid_scan"
	TypeSetMode  Type = "set_mode"

	// Outbound only
	TypeAssignRfid Type = "assign_rfid"
	TypeRfidExists Type = "rfid_exists"
	TypeAttendance Type = "attendance"
	TypeError      Type = "error"
)

// RfidExistsMessage is the fixed text carried by rfid_exists broadcasts.
const RfidExistsMessage = "RFID already assigned"

// Envelope is one typed message. Which fields are meaningful depends on Type:
//
//	rfid_scan, assign_rfid, attendance: RFID
//	rfid_exists: RFID, Message
//	set_mode: Mode
//	error: Message
type Envelope struct {
	Type    Type
	RFID    string
	Mode    string
	Message string
}

// Inbound reports whether clients may send this envelope type.
func (t Type) Inbound() bool {
	return t == TypeRfidScan || t == TypeSetMode
}

// RfidScan builds an inbound scan envelope.
func RfidScan(tag string) Envelope {
	return Envelope{Type: TypeRfidScan, RFID: tag}
}

// SetMode builds a mode envelope, used both inbound and for mode broadcasts.
func SetMode(mode string) Envelope {
	return Envelope{Type: TypeSetMode, Mode: mode}
}

// AssignRfid tells clients the tag is free to be assigned.
func AssignRfid(tag string) Envelope {
	return Envelope{Type: TypeAssignRfid, RFID: tag}
}

// RfidExists tells clients the tag is already assigned.
func RfidExists(tag string) Envelope {
	return Envelope{Type: TypeRfidExists, RFID: tag, Message: RfidExistsMessage}
}

// Attendance reports a check-in scan.
func Attendance(tag string) Envelope {
	return Envelope{Type: TypeAttendance, RFID: tag}
}

// Error is a reply sent only to the session that caused it.
func Error(message string) Envelope {
	return Envelope{Type: TypeError, Message: message}
}
