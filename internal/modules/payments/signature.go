package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix>,v1=<hex hmac-sha256>" where the MAC is
// computed over "<t>.<body>" with the shared webhook secret.
const SignatureHeader = "X-Gateway-Signature"

func ComputeSignature(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func FormatSignatureHeader(secret []byte, t int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", t, ComputeSignature(secret, t, body))
}

// VerifySignature checks the header against the body using constant-time
// comparison and rejects signatures older than maxAge (replay window).
func VerifySignature(secret []byte, header string, body []byte, maxAge time.Duration, now time.Time) error {
	var ts int64
	var sig string

	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			ts = n
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if maxAge > 0 && age > maxAge {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := ComputeSignature(secret, ts, body)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("%w: mac mismatch", ErrInvalidSignature)
	}
	return nil
}
