package qris

import (
	"errors"
	"strings"
	"testing"
)

// staticPayload is a minimal but structurally valid static QRIS string:
// top-level TLV tuples with the static point-of-initiation, a country code
// and a trailing CRC tuple.
const staticPayload = "0002010102112608ABCDEFGH5802ID5904TOKO6304ABCD"

func TestChecksumKnownVector(t *testing.T) {
	// Standard CRC-16/CCITT-FALSE check value.
	if got := Checksum("123456789"); got != "29B1" {
		t.Fatalf("Checksum(123456789) = %s, want 29B1", got)
	}
}

func TestMakeDynamic(t *testing.T) {
	result, err := MakeDynamic(staticPayload, 150)
	if err != nil {
		t.Fatalf("MakeDynamic failed: %v", err)
	}

	if strings.Contains(result, pointOfInitiationStatic) {
		t.Fatalf("result still carries static point-of-initiation: %s", result)
	}
	if !strings.Contains(result, pointOfInitiationDynamic) {
		t.Fatalf("result missing dynamic point-of-initiation: %s", result)
	}
	if !strings.Contains(result, "5403150"+countryCodeID) {
		t.Fatalf("amount field must sit directly before the country code, got %s", result)
	}

	body := result[:len(result)-4]
	if got := result[len(result)-4:]; got != Checksum(body) {
		t.Fatalf("trailing CRC = %s, want %s", got, Checksum(body))
	}
}

func TestMakeDynamicAmountWidth(t *testing.T) {
	result, err := MakeDynamic(staticPayload, 26400)
	if err != nil {
		t.Fatalf("MakeDynamic failed: %v", err)
	}
	if !strings.Contains(result, "540526400") {
		t.Fatalf("expected tag 54 with length 05 and value 26400, got %s", result)
	}
}

func TestMakeDynamicValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		amount  int64
		wantErr error
	}{
		{"zero amount", staticPayload, 0, ErrInvalidAmount},
		{"negative amount", staticPayload, -5, ErrInvalidAmount},
		{"too short", "0002010102115802ID", 100, ErrMalformedPayload},
		{"not static", strings.Replace(staticPayload, "010211", "010212", 1), 100, ErrNotStaticQris},
		{"missing country code", strings.Replace(staticPayload, "5802ID", "5902ID", 1), 100, ErrMissingCountryCode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MakeDynamic(tc.payload, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("MakeDynamic error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMakeDynamicRejectsExistingAmountField(t *testing.T) {
	// Same tuples as staticPayload plus a top-level tag 54; a payload like
	// this is already dynamic even if it still says 010211.
	withAmount := "0002010102112608ABCDEFGH54031505802ID5904TOKO6304ABCD"
	_, err := MakeDynamic(withAmount, 100)
	if !errors.Is(err, ErrAlreadyDynamic) {
		t.Fatalf("MakeDynamic error = %v, want %v", err, ErrAlreadyDynamic)
	}
}

func TestMakeDynamicTwiceFails(t *testing.T) {
	result, err := MakeDynamic(staticPayload, 150)
	if err != nil {
		t.Fatalf("first encode failed: %v", err)
	}

	// The encoded payload no longer carries 010211, so a second encode must
	// be rejected before it can corrupt the amount field.
	_, err = MakeDynamic(result, 200)
	if !errors.Is(err, ErrNotStaticQris) {
		t.Fatalf("second encode error = %v, want %v", err, ErrNotStaticQris)
	}
}
