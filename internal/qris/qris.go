// Package qris converts a merchant-presented static QRIS payload (EMV QR
// Code for Payment Systems format) into a dynamic payload carrying a
// transaction amount, with a recomputed CRC-16/CCITT-FALSE checksum.
package qris

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount      = errors.New("nominal qris tidak valid")
	ErrMalformedPayload   = errors.New("format qris statis tidak valid")
	ErrNotStaticQris      = errors.New("qris bukan qris statis (010211 tidak ditemukan)")
	ErrMissingCountryCode = errors.New("qris tidak mengandung country code 5802ID")
	ErrAlreadyDynamic     = errors.New("qris sudah memuat field nominal (tag 54)")
)

const (
	pointOfInitiationStatic  = "010211"
	pointOfInitiationDynamic = "010212"
	countryCodeID            = "5802ID"
	amountTag                = "54"
)

// MakeDynamic rewrites a static payload into a dynamic one: the old CRC is
// stripped, the point-of-initiation flips from static to dynamic, a tag-54
// amount field is spliced in just before the country code tuple and a fresh
// checksum is appended. Amount is whole currency units.
//
// A payload that already carries a top-level tag-54 field is rejected rather
// than patched; re-encoding an encoded payload is a caller bug.
func MakeDynamic(payload string, amount int64) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	if len(payload) < 20 {
		return "", ErrMalformedPayload
	}
	if !strings.Contains(payload, pointOfInitiationStatic) {
		return "", ErrNotStaticQris
	}
	if !strings.Contains(payload, countryCodeID) {
		return "", ErrMissingCountryCode
	}
	if hasTopLevelTag(payload, amountTag) {
		return "", ErrAlreadyDynamic
	}

	// The final 4 characters are the old CRC value. The "6304" tag+length
	// prefix stays in place; the fresh CRC is computed over everything
	// including it and appended at the very end.
	stripped := payload[:len(payload)-4]
	stripped = strings.Replace(stripped, pointOfInitiationStatic, pointOfInitiationDynamic, 1)

	parts := strings.SplitN(stripped, countryCodeID, 2)
	amountStr := fmt.Sprintf("%d", amount)
	amountField := fmt.Sprintf("%s%02d%s", amountTag, len(amountStr), amountStr)

	rebuilt := strings.TrimSpace(parts[0]) + amountField + countryCodeID + strings.TrimSpace(parts[1])
	return rebuilt + Checksum(rebuilt), nil
}

// Checksum computes CRC-16/CCITT-FALSE over the payload bytes: register
// seeded with 0xFFFF, polynomial 0x1021, rendered as 4 uppercase hex digits.
func Checksum(payload string) string {
	crc := uint32(0xFFFF)
	for i := 0; i < len(payload); i++ {
		crc ^= uint32(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc&0xFFFF)
}

// hasTopLevelTag walks the top-level TAG(2)+LEN(2)+VALUE tuples of an EMV
// payload looking for the given tag. A truncated or non-numeric stream stops
// the walk; detection is best effort and only used to reject re-encoding.
func hasTopLevelTag(payload string, tag string) bool {
	pos := 0
	for pos+4 <= len(payload) {
		current := payload[pos : pos+2]
		length, ok := parseTwoDigits(payload[pos+2 : pos+4])
		if !ok {
			return false
		}
		if current == tag {
			return true
		}
		pos += 4 + length
	}
	return false
}

func parseTwoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
