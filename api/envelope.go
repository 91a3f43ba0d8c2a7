package api

import (
	"encoding/json"

	"github.com/andotherstuff/hosted-nostr-auth-server/ceremony"
	"github.com/pkg/errors"
)

// ErrorInfo is the serialized form of a ceremony error.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Required and Actual are only present for InsufficientParticipants.
	Required *int `json:"required,omitempty"`
	Actual   *int `json:"actual,omitempty"`
}

// Envelope is the result of every boundary call. Exactly one of Data and
// Error is non-nil, and Success reports which.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data"`
	Error   *ErrorInfo `json:"error"`
}

func errorInfo(err error) *ErrorInfo {
	kind := ceremony.KindOf(err)
	info := &ErrorInfo{Kind: kind.String(), Message: err.Error()}
	var e *ceremony.Error
	if kind == ceremony.KindInsufficientParticipants && errors.As(err, &e) {
		required, actual := e.Required, e.Actual
		info.Required, info.Actual = &required, &actual
	}
	return info
}

// fallback is returned when an envelope cannot be marshalled. It is a
// constant so rendering never fails.
const fallback = `{"success":false,"data":null,"error":{"kind":"SerializationError","message":"result could not be encoded"}}`

func render[T any](env Envelope[T]) string {
	out, err := json.Marshal(env)
	if err != nil {
		return fallback
	}
	return string(out)
}

func ok[T any](data T) string {
	return render(Envelope[T]{Success: true, Data: &data})
}

func fail[T any](err error) string {
	return render(Envelope[T]{Error: errorInfo(err)})
}

// result renders data or err.
func result[T any](data T, err error) string {
	if err != nil {
		return fail[T](err)
	}
	return ok(data)
}
