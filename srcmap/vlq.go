package srcmap

import (
	"errors"
	"fmt"
	"strings"
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends base64 VLQ encoding of v: sign in the lowest bit, 5 bits
// per digit, continuation flag in bit 6.
func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 0x1f
		u >>= 5
		if u > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}

// readVLQ decodes a single value from the beginning of s and returns it with
// the number of bytes consumed.
func readVLQ(s string) (int, int, error) {
	var u, shift int
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(base64Digits, s[i])
		if digit < 0 {
			return 0, 0, fmt.Errorf("invalid base64 digit %q in mappings", s[i])
		}
		u |= (digit & 0x1f) << shift
		if digit&0x20 == 0 {
			if u&1 != 0 {
				return -(u >> 1), i + 1, nil
			}
			return u >> 1, i + 1, nil
		}
		shift += 5
	}
	return 0, 0, errors.New("unterminated value in mappings")
}
