// Package errors provides coded domain errors whose user-facing text comes
// from the i18n catalog.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Protocol errors
	CodeProtocolInvalidFrame  Code = "PROTOCOL_INVALID_FRAME"
	CodeProtocolMissingType   Code = "PROTOCOL_MISSING_TYPE"
	CodeProtocolUnknownType   Code = "PROTOCOL_UNKNOWN_TYPE"
	CodeProtocolFrameTooLarge Code = "PROTOCOL_FRAME_TOO_LARGE"

	// Mode errors
	CodeModeInvalid Code = "MODE_INVALID"

	// Verifier errors
	CodeVerifierUnavailable       Code = "VERIFIER_UNAVAILABLE"
	CodeVerifierStatus            Code = "VERIFIER_STATUS"
	CodeVerifierMalformedResponse Code = "VERIFIER_MALFORMED_RESPONSE"
)

// Category groups codes by how the hub reacts to them.
type Category string

const (
	CategoryProtocol   Category = "protocol"
	CategoryValidation Category = "validation"
	CategoryDependency Category = "dependency"
	CategoryInternal   Category = "internal"
)

// Category reports the handling category for the code.
func (c Code) Category() Category {
	switch c {
	case CodeProtocolInvalidFrame,
		CodeProtocolMissingType,
		CodeProtocolUnknownType,
		CodeProtocolFrameTooLarge:
		return CategoryProtocol
	case CodeModeInvalid:
		return CategoryValidation
	case CodeVerifierUnavailable,
		CodeVerifierStatus,
		CodeVerifierMalformedResponse:
		return CategoryDependency
	default:
		return CategoryInternal
	}
}
