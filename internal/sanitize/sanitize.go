// Package sanitize normalizes raw telemetry frames into text a JSON parser accepts.
//
// The telemetry server forwards strings scraped from router CLIs, which may carry
// raw control characters. Those are invalid inside JSON strings and abort parsing,
// so every code point in 0x00-0x19 is removed before a frame is decoded.
//
// Two-character escape sequences (\n, \', \", \&, \r, \t, \b, \f) are left
// exactly as they are: they are already valid text and must not be escaped twice.
package sanitize

// maxControl is the highest code point stripped from a frame.
const maxControl = 0x19

// Clean returns raw with every code point in 0x00-0x19 removed.
func Clean(raw string) string {
	if !hasControl(raw) {
		return raw
	}
	return string(strip([]byte(raw)))
}

// CleanBytes is Clean for websocket payloads. The input slice is not modified.
func CleanBytes(raw []byte) []byte {
	if !hasControl(raw) {
		return raw
	}
	return strip(raw)
}

// Control code points are single bytes in UTF-8 and never appear inside a
// multi-byte sequence, so filtering bytes is the same as filtering runes.
func hasControl[T string | []byte](s T) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= maxControl {
			return true
		}
	}
	return false
}

func strip(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b > maxControl {
			out = append(out, b)
		}
	}
	return out
}
