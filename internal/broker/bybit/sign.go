package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of timestamp+apiKey+recvWindow+payload, the v5 private endpoint signature.
// payload is the raw JSON body for POST requests or the query string for GET requests.
func Sign(secret, timestamp, apiKey, recvWindow, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + apiKey + recvWindow + payload))
	return hex.EncodeToString(mac.Sum(nil))
}
