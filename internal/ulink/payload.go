package ulink

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PayloadInput describes a payload as either text or hex. Exactly one of
// Text and Hex must be set.
type PayloadInput struct {
	Text string `json:"text,omitempty"`
	Hex  string `json:"hex,omitempty"`

	// NullTerminate appends a trailing 0x00, which is what receivers that
	// parse C strings expect.
	NullTerminate bool `json:"null_terminate,omitempty"`
}

// ParsePayload converts in into raw bytes. Length is not checked here;
// Encode reports ErrPayloadTooLong.
func ParsePayload(in PayloadInput) ([]byte, error) {
	if in.Text != "" && in.Hex != "" {
		return nil, fmt.Errorf("%w: text and hex are mutually exclusive", ErrInvalidPayload)
	}

	var out []byte
	switch {
	case in.Hex != "":
		cleaned := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(in.Hex)
		b, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out = b
	default:
		out = []byte(in.Text)
	}

	if in.NullTerminate {
		out = append(out, 0)
	}
	return out, nil
}
