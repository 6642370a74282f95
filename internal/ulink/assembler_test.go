package ulink

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 31, 32, 253, 254} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(255 - i)
		}

		seq, err := Encode(payload)
		if err != nil {
			t.Fatalf("Encode(%d bytes) error = %v", n, err)
		}

		got, err := Decode(seq.Addresses())
		if err != nil {
			t.Fatalf("Decode(%d bytes) error = %v", n, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("Decode(%d bytes) = %v, want %v", n, got, payload)
		}
	}
}

func TestAssembler_OutOfOrderWithRepeats(t *testing.T) {
	payload := []byte("MyHomeWiFi\x00hunter2\x00")
	seq, _ := Encode(payload)

	// Data first, backwards, with a duplicate, then the header.
	var observed []Address
	for i := len(seq.Data) - 1; i >= 0; i-- {
		observed = append(observed, seq.Data[i])
	}
	observed = append(observed, seq.Data[0], seq.Header)

	got, err := Decode(observed)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Decode() = %q, want %q", got, payload)
	}
}

func TestAssembler_Errors(t *testing.T) {
	tests := []struct {
		name  string
		addrs []Address
		want  error
	}{
		{
			name:  "checksum mismatch",
			addrs: []Address{{239, 0, 2, 0}, {239, 1, 1, 2}},
			want:  ErrChecksumMismatch,
		},
		{
			name:  "non-zero padding",
			addrs: []Address{{239, 0, 1, 5}, {239, 1, 5, 7}},
			want:  ErrInvalidPadding,
		},
		{
			name:  "foreign address",
			addrs: []Address{{224, 0, 0, 251}},
			want:  ErrNotUlinkAddress,
		},
		{
			name:  "missing group",
			addrs: []Address{{239, 0, 3, 64}, {239, 1, 65, 66}},
			want:  ErrIncomplete,
		},
		{
			name:  "no header",
			addrs: []Address{{239, 1, 65, 66}, {239, 2, 67, 0}},
			want:  ErrIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.addrs)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAssembler_HeaderChangeDiscardsOldGroups(t *testing.T) {
	asm := NewAssembler()

	first, _ := Encode([]byte("ABCD"))
	second, _ := Encode([]byte("xy"))

	// Partial first payload.
	for _, a := range []Address{first.Header, first.Data[0]} {
		if _, ok, err := asm.Observe(a); ok || err != nil {
			t.Fatalf("Observe(%s) = ok %v, err %v; want incomplete", a, ok, err)
		}
	}

	// Group 1 of the first payload must not leak into the second.
	if _, ok, err := asm.Observe(second.Header); ok || err != nil {
		t.Fatalf("Observe(second header) = ok %v, err %v; want incomplete", ok, err)
	}
	got, ok, err := asm.Observe(second.Data[0])
	if err != nil || !ok {
		t.Fatalf("Observe(second data) = ok %v, err %v; want complete", ok, err)
	}
	if string(got) != "xy" {
		t.Errorf("payload = %q, want %q", got, "xy")
	}
}

func TestAssembler_ResetsAfterCompletion(t *testing.T) {
	asm := NewAssembler()
	seq, _ := Encode([]byte("ok"))

	for _, a := range seq.Addresses() {
		_, _, _ = asm.Observe(a)
	}

	// A lone data address after completion is not enough for a new payload.
	if _, ok, err := asm.Observe(seq.Data[0]); ok || err != nil {
		t.Errorf("Observe after completion = ok %v, err %v; want incomplete", ok, err)
	}
}
