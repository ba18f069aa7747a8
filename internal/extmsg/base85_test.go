package extmsg

import (
	"bytes"
	"testing"
)

func TestDecodeBase85(t *testing.T) {
	tests := []struct {
		name  string
		group []byte
		want  uint32
	}{
		{name: "all low", group: []byte("!!!!!"), want: 0},
		{name: "one", group: []byte{33, 33, 33, 33, 34}, want: 1},
		{name: "eighty five", group: []byte{33, 33, 33, 34, 33}, want: 85},
		{name: "mixed alphabet", group: []byte("Abcde"), want: 1710820738},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase85(tt.group)
			if err != nil {
				t.Fatalf("DecodeBase85(%q) returned error: %s", tt.group, err)
			}
			if got != tt.want {
				t.Errorf("DecodeBase85(%q) = %d, want %d", tt.group, got, tt.want)
			}
		})
	}
}

func TestDecodeBase85Errors(t *testing.T) {
	if _, err := DecodeBase85([]byte("!!!")); err == nil {
		t.Errorf("expected an error for a short group")
	}
	if _, err := DecodeBase85([]byte("!! !!")); err == nil {
		t.Errorf("expected an error for a byte outside the alphabet")
	}
}

func TestEncodeBase85RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 85, 7225, 1710820738, 4294967295} {
		group := EncodeBase85(v)
		if len(group) != groupSize {
			t.Fatalf("EncodeBase85(%d) produced %d bytes", v, len(group))
		}
		got, err := DecodeBase85(group)
		if err != nil {
			t.Fatalf("DecodeBase85(EncodeBase85(%d)) returned error: %s", v, err)
		}
		if got != v {
			t.Errorf("round trip of %d produced %d (group %v)", v, got, group)
		}
	}
}

func TestEncodeBase85KnownGroups(t *testing.T) {
	if got := EncodeBase85(0); !bytes.Equal(got, []byte("!!!!!")) {
		t.Errorf("EncodeBase85(0) = %q, want %q", got, "!!!!!")
	}
	if got := EncodeBase85(1710820738); !bytes.Equal(got, []byte("Abcde")) {
		t.Errorf("EncodeBase85(1710820738) = %q, want %q", got, "Abcde")
	}
}
