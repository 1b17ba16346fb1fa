package sourcemap

import (
	"fmt"
	"strconv"
)

// ---- Base64 VLQ ----

// Format: the sign goes in the least significant bit, so the value
// becomes (|n| << 1) | sign.  That's then split in groups of 5 bits,
// least significant group first.  Every group but the last one has
// the continuation bit (0x20) set, and each 6-bit digit is written
// with the standard base64 alphabet.

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase

	base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

// base64Digits is the reverse of base64Alphabet, -1 marks bytes
// outside of it
var base64Digits = func() (digits [256]int8) {
	for i := range digits {
		digits[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		digits[base64Alphabet[i]] = int8(i)
	}
	return
}()

// EncodeVLQ returns the base64 VLQ representation of `value`
func EncodeVLQ(value int) string {
	return string(AppendVLQ(make([]byte, 0, 8), value))
}

// AppendVLQ appends the base64 VLQ representation of `value` to dst.
// Values must stay within ±maxInt: the smallest int has no positive
// counterpart, so it panics instead of encoding a wrong value.
func AppendVLQ(dst []byte, value int) []byte {
	var v uint64
	if value < -maxInt {
		panic(fmt.Sprintf("base64 VLQ can't encode %d", value))
	}
	if value < 0 {
		v = (uint64(-int64(value)) << 1) | 1
	} else {
		v = uint64(value) << 1
	}
	for {
		digit := v & vlqBaseMask
		v >>= vlqBaseShift
		if v > 0 {
			digit |= vlqContinuationBit
		}
		dst = append(dst, base64Alphabet[digit])
		if v == 0 {
			return dst
		}
	}
}

// DecodeVLQ reads one value from `s` starting at `start`.  It
// returns the value and the index right after its last digit.
func DecodeVLQ(s string, start int) (int, int, error) {
	var (
		v     uint64
		shift uint
		pos   = start
	)
	for {
		if pos >= len(s) {
			return 0, pos, ErrVLQTruncated
		}
		digit := base64Digits[s[pos]]
		if digit < 0 {
			return 0, pos, &vlqDigitError{char: s[pos], err: ErrVLQInvalidDigit}
		}
		pos++
		bits := uint64(digit & vlqBaseMask)
		if shift >= 64 || (shift > 64-vlqBaseShift && bits>>(64-shift) != 0) {
			return 0, pos, ErrVLQOverflow
		}
		v |= bits << shift
		if digit&vlqContinuationBit == 0 {
			break
		}
		shift += vlqBaseShift
	}
	negative := v&1 == 1
	v >>= 1
	if v > uint64(maxInt) {
		return 0, pos, ErrVLQOverflow
	}
	if negative {
		return -int(v), pos, nil
	}
	return int(v), pos, nil
}

const maxInt = int(^uint(0) >> 1)

type vlqDigitError struct {
	char byte
	err  error
}

func (e *vlqDigitError) Error() string {
	return e.err.Error() + " " + strconv.QuoteRune(rune(e.char))
}

func (e *vlqDigitError) Unwrap() error { return e.err }
