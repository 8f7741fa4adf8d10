package jdeserialize

import "testing"

func TestDecodeModifiedUTF8(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("Hello"), "Hello"},
		{"encoded null", []byte{0xC0, 0x80}, "\x00"},
		{"two byte copyright sign", []byte{0xC2, 0xA9}, "©"},
		{"three byte euro sign", []byte{0xE2, 0x82, 0xAC}, "€"},
		{"empty", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeModifiedUTF8(tc.in)
			if err != nil {
				t.Fatalf("decodeModifiedUTF8(%v) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("decodeModifiedUTF8(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeModifiedUTF8RejectsLiteralNull(t *testing.T) {
	if _, err := decodeModifiedUTF8([]byte{0x41, 0x00, 0x42}); err == nil {
		t.Fatal("expected an error decoding a literal null byte, got none")
	}
}

func TestDecodeModifiedUTF8RejectsTruncatedSequence(t *testing.T) {
	if _, err := decodeModifiedUTF8([]byte{0xE2, 0x82}); err == nil {
		t.Fatal("expected an error decoding a truncated three-byte sequence, got none")
	}
}

func TestDecodeModifiedUTF8RejectsBadContinuation(t *testing.T) {
	if _, err := decodeModifiedUTF8([]byte{0xC2, 0x20}); err == nil {
		t.Fatal("expected an error decoding a malformed continuation byte, got none")
	}
}

func TestModifiedUTF8RoundTrip(t *testing.T) {
	for _, s := range []string{"a", "Hello, world", "© copyright", "€100"} {
		encoded := encodeModifiedUTF8(s)
		decoded, err := decodeModifiedUTF8(encoded)
		if err != nil {
			t.Fatalf("round trip of %q failed: %v", s, err)
		}
		if decoded != s {
			t.Errorf("round trip of %q produced %q", s, decoded)
		}
	}
}
