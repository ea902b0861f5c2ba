package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown                   = "UNKNOWN"
	CodeProtocolInvalidFrame      = "PROTOCOL_INVALID_FRAME"
	CodeProtocolMissingType       = "PROTOCOL_MISSING_TYPE"
	CodeProtocolUnknownType       = "PROTOCOL_UNKNOWN_TYPE"
	CodeProtocolFrameTooLarge     = "PROTOCOL_FRAME_TOO_LARGE"
	CodeModeInvalid               = "MODE_INVALID"
	CodeVerifierUnavailable       = "VERIFIER_UNAVAILABLE"
	CodeVerifierStatus            = "VERIFIER_STATUS"
	CodeVerifierMalformedResponse = "VERIFIER_MALFORMED_RESPONSE"
)

var enUS = map[Code]string{
	CodeUnknown:                   "Server error",
	CodeProtocolInvalidFrame:      "Invalid message format",
	CodeProtocolMissingType:       "Unknown message type",
	CodeProtocolUnknownType:       "Unknown message type",
	CodeProtocolFrameTooLarge:     "Message too large",
	CodeModeInvalid:               "Invalid mode value",
	CodeVerifierUnavailable:       "Failed to verify RFID with external API",
	CodeVerifierStatus:            "Failed to verify RFID with external API",
	CodeVerifierMalformedResponse: "Failed to verify RFID with external API",
}

var ptBR = map[Code]string{
	CodeUnknown:                   "Erro no servidor",
	CodeProtocolInvalidFrame:      "Formato de mensagem inválido",
	CodeProtocolMissingType:       "Tipo de mensagem desconhecido",
	CodeProtocolUnknownType:       "Tipo de mensagem desconhecido",
	CodeProtocolFrameTooLarge:     "Mensagem muito grande",
	CodeModeInvalid:               "Valor de modo inválido",
	CodeVerifierUnavailable:       "Falha ao verificar o RFID na API externa",
	CodeVerifierStatus:            "Falha ao verificar o RFID na API externa",
	CodeVerifierMalformedResponse: "Falha ao verificar o RFID na API externa",
}
