package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the envelope shape changes.
const envelopeVersion = 1

// successEnvelope wraps successful responses.
type successEnvelope struct {
	V       int  `json:"v" doc:"Envelope version"`
	Success bool `json:"success" doc:"Always true for success responses"`
	Data    any  `json:"data" doc:"Response payload"`
}

// simpleErrorEnvelope wraps errors that only carry a message.
type simpleErrorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// detailedErrorEnvelope wraps errors with a machine-readable code.
type detailedErrorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every response body in the versioned envelope.
// Clients dispatch on the `v` and `success` fields, so the field names here
// are a wire contract.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code == "" {
			return simpleErrorEnvelope{
				V:       envelopeVersion,
				Success: false,
				Error:   apiErr.Message,
			}, nil
		}
		return detailedErrorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	return successEnvelope{
		V:       envelopeVersion,
		Success: strings.HasPrefix(status, "2"),
		Data:    v,
	}, nil
}
