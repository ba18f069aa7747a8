package extmsg

import (
	"encoding/binary"
	"io/ioutil"
	"testing"

	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"
)

// mapLookup is an in-memory MessageLookup for tests.
type mapLookup map[[2]uint32]string

func (m mapLookup) GetMessageString(category, instance uint32) (string, bool) {
	s, ok := m[[2]uint32{category, instance}]
	return s, ok
}

func testDecoder(lookup MessageLookup) *Decoder {
	log := logrus.New()
	log.Out = ioutil.Discard
	return NewDecoder(lookup, log)
}

// block assembles one ~&...~ extended block from raw pieces.
func block(category, instance uint32, fields ...[]byte) string {
	b := append([]byte(marker), EncodeBase85(category)...)
	b = append(b, EncodeBase85(instance)...)
	for _, f := range fields {
		b = append(b, f...)
	}
	return string(append(b, terminator))
}

func stringField(s string) []byte {
	f := make([]byte, 3, 3+len(s))
	f[0] = 'S'
	binary.BigEndian.PutUint16(f[1:3], uint16(len(s)))
	return append(f, s...)
}

func signedField(v int32) []byte {
	return append([]byte{'i'}, EncodeBase85(uint32(v))...)
}

func refField(category, instance uint32) []byte {
	f := append([]byte{'R'}, EncodeBase85(category)...)
	return append(f, EncodeBase85(instance)...)
}

func TestDecodeFieldSingleBlock(t *testing.T) {
	lookup := mapLookup{{20, 1}: "%s scored %d points"}
	d := testDecoder(lookup)

	field := block(20, 1, stringField("Foo"), signedField(42))
	messages, rendered := d.DecodeField(field)

	if len(messages) != 1 {
		t.Fatalf("expected 1 decoded block, got %d", len(messages))
	}
	want := ExtendedMessage{
		Category: 20,
		Instance: 1,
		Args:     []interface{}{"Foo", int32(42)},
		Rendered: "Foo scored 42 points",
	}
	if diff := deep.Equal(messages[0], want); diff != nil {
		t.Errorf("decoded block did not match: %v", diff)
	}
	if rendered != "Foo scored 42 points" {
		t.Errorf("rendered = %q", rendered)
	}
}

func TestDecodeFieldConcatenatesBlocks(t *testing.T) {
	lookup := mapLookup{
		{20, 1}: "  first part  ",
		{20, 2}: "second part",
	}
	d := testDecoder(lookup)

	field := block(20, 1) + block(20, 2)
	messages, rendered := d.DecodeField(field)

	if len(messages) != 2 {
		t.Fatalf("expected 2 decoded blocks, got %d", len(messages))
	}
	if rendered != "first part second part" {
		t.Errorf("expected trimmed concatenation, got %q", rendered)
	}
}

func TestDecodeFieldUnresolvedTemplate(t *testing.T) {
	// The first block has no template; its text contribution is empty but
	// the scan continues to the next block.
	lookup := mapLookup{{20, 2}: "known"}
	d := testDecoder(lookup)

	messages, rendered := d.DecodeField(block(99, 99) + block(20, 2))

	if len(messages) != 2 {
		t.Fatalf("expected 2 decoded blocks, got %d", len(messages))
	}
	if messages[0].Rendered != "" {
		t.Errorf("expected empty rendering for unknown template, got %q", messages[0].Rendered)
	}
	if rendered != "known" {
		t.Errorf("rendered = %q, want %q", rendered, "known")
	}
}

func TestDecodeFieldUnknownTagAbortsBlock(t *testing.T) {
	lookup := mapLookup{{20, 1}: "first"}
	d := testDecoder(lookup)

	// Second block contains a tag outside the alphabet; only the first
	// block survives.
	bad := block(20, 2, []byte{'Z'})
	messages, rendered := d.DecodeField(block(20, 1) + bad)

	if len(messages) != 1 {
		t.Fatalf("expected 1 surviving block, got %d", len(messages))
	}
	if rendered != "first" {
		t.Errorf("rendered = %q, want %q", rendered, "first")
	}
}

func TestDecodeFieldCrossReference(t *testing.T) {
	lookup := mapLookup{
		{20, 1}:  "item: %s",
		{10, 77}: "Sword of Testing",
	}
	d := testDecoder(lookup)

	_, rendered := d.DecodeField(block(20, 1, refField(10, 77)))
	if rendered != "item: Sword of Testing" {
		t.Errorf("rendered = %q", rendered)
	}

	// Unresolved references degrade to a placeholder instead of failing.
	_, rendered = d.DecodeField(block(20, 1, refField(5, 7)))
	if rendered != "item: Unknown (5, 7)" {
		t.Errorf("rendered = %q", rendered)
	}
}

func TestDecodeFieldLateLookup(t *testing.T) {
	lookup := mapLookup{
		{20, 1}:         "zone: %s",
		{20000, 0x0102}: "Newland City",
	}
	d := testDecoder(lookup)

	field := block(20, 1, []byte{'l', 0, 0, 0x01, 0x02})
	_, rendered := d.DecodeField(field)
	if rendered != "zone: Newland City" {
		t.Errorf("rendered = %q", rendered)
	}
}

func TestIsExtended(t *testing.T) {
	if !IsExtended("~&!!!!!") {
		t.Errorf("expected marker-prefixed field to be extended")
	}
	if IsExtended("plain chat text") {
		t.Errorf("expected plain text not to be extended")
	}
}
