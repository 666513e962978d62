package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signHex returns the lowercase hex HMAC-SHA256 of msg.
func signHex(secret, msg string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

func validHex(secret, msg, sig string) bool {
	return hmac.Equal([]byte(signHex(secret, msg)), []byte(strings.ToLower(sig)))
}

// signatureParts splits "k1=v1,k2=v2" headers. Repeated keys are kept in order.
func signatureParts(header string) map[string][]string {
	out := map[string][]string{}
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = append(out[strings.TrimSpace(k)], strings.TrimSpace(v))
	}
	return out
}

func first(m map[string][]string, k string) string {
	if v := m[k]; len(v) > 0 {
		return v[0]
	}
	return ""
}
