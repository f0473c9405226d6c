package payments

import (
	"errors"
	"testing"
	"time"
)

func TestSignatureRoundTrip(t *testing.T) {
	secret := []byte("whsec_abc")
	body := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	header := FormatSignatureHeader(secret, now.Unix(), body)
	if err := VerifySignature(secret, header, body, 5*time.Minute, now); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestSignatureWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	header := FormatSignatureHeader([]byte("whsec_abc"), now.Unix(), body)
	err := VerifySignature([]byte("whsec_other"), header, body, 5*time.Minute, now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignatureTamperedBody(t *testing.T) {
	secret := []byte("whsec_abc")
	now := time.Unix(1700000000, 0)

	header := FormatSignatureHeader(secret, now.Unix(), []byte(`{"amount":100}`))
	err := VerifySignature(secret, header, []byte(`{"amount":999}`), 5*time.Minute, now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignatureOutsideTolerance(t *testing.T) {
	secret := []byte("whsec_abc")
	body := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	for _, skew := range []time.Duration{-time.Hour, time.Hour} {
		header := FormatSignatureHeader(secret, now.Add(skew).Unix(), body)
		err := VerifySignature(secret, header, body, 5*time.Minute, now)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("skew %v: err = %v", skew, err)
		}
	}
}

func TestSignatureWithinTolerance(t *testing.T) {
	secret := []byte("whsec_abc")
	body := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	header := FormatSignatureHeader(secret, now.Add(-2*time.Minute).Unix(), body)
	if err := VerifySignature(secret, header, body, 5*time.Minute, now); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestSignatureMalformedHeaders(t *testing.T) {
	secret := []byte("whsec_abc")
	body := []byte(`{}`)
	now := time.Unix(1700000000, 0)

	for _, header := range []string{
		"",
		"garbage",
		"t=,v1=abc",
		"t=notanumber,v1=abc",
		"t=1700000000",
		"v1=deadbeef",
	} {
		if err := VerifySignature(secret, header, body, 5*time.Minute, now); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: err = %v", header, err)
		}
	}
}
