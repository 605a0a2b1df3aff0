package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// hmacFields is the order in which Paymob concatenates transaction fields
// before signing a processed-callback.
var hmacFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// callbackEnvelope is the body Paymob posts. Older integrations post the
// transaction object bare, so obj may be empty and the body itself is the object.
type callbackEnvelope struct {
	Type string                     `json:"type"`
	Obj  map[string]json.RawMessage `json:"obj"`
	HMAC string                     `json:"hmac"`
}

// transactionObject extracts the transaction object and any hmac carried in the body.
func transactionObject(payload []byte) (map[string]json.RawMessage, string, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", err
	}
	if len(env.Obj) > 0 {
		return env.Obj, env.HMAC, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, "", err
	}
	return obj, env.HMAC, nil
}

// signatureString concatenates the signed fields in order. Missing fields contribute "".
func signatureString(obj map[string]json.RawMessage) string {
	var sb strings.Builder
	for _, f := range hmacFields {
		sb.WriteString(fieldString(obj, f))
	}
	return sb.String()
}

func fieldString(obj map[string]json.RawMessage, path string) string {
	key, rest, nested := strings.Cut(path, ".")
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	if nested {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return ""
		}
		return fieldString(inner, rest)
	}
	return scalarString(raw)
}

// scalarString renders a JSON scalar the way Paymob does when signing:
// strings unquoted, numbers and booleans literally, null as empty.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Sign returns the lowercase hex HMAC-SHA512 of the concatenated fields.
func Sign(secret string, obj map[string]json.RawMessage) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(signatureString(obj)))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify checks sig, or the hmac embedded in the body when sig is empty,
// in constant time.
func verify(secret string, payload []byte, sig string) bool {
	if secret == "" {
		return false
	}
	obj, bodySig, err := transactionObject(payload)
	if err != nil {
		return false
	}
	if sig == "" {
		sig = bodySig
	}
	sig = strings.ToLower(strings.TrimSpace(sig))
	if sig == "" {
		return false
	}
	want := Sign(secret, obj)
	return hmac.Equal([]byte(want), []byte(sig))
}
