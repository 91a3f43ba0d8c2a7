package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/andotherstuff/hosted-nostr-auth-server/ceremony"
)

func serializationError(err error, what string) error {
	return &ceremony.Error{Kind: ceremony.KindSerialization, Detail: "invalid " + what, Original: err}
}

// parseState decodes a state document. An empty or null document is a
// missing state rather than a malformed one.
func parseState[T any](stateJSON string) (*T, error) {
	trimmed := bytes.TrimSpace([]byte(stateJSON))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ceremony.Error{Kind: ceremony.KindInvalidStateTransition, Detail: "missing state"}
	}
	var s T
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, serializationError(err, "state")
	}
	return &s, nil
}

func parseJSON(doc, what string, v any) error {
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return serializationError(err, what)
	}
	return nil
}

func parseBlob(hexStr, what string) (ceremony.Blob, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, serializationError(err, what)
	}
	return b, nil
}
