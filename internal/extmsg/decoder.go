package extmsg

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Marker introducing an extended block inside a message field.
const marker = "~&"

// terminator ends a block's argument list.
const terminator = '~'

// Category used to resolve 'l' (late lookup) arguments.
const lateLookupCategory = 20000

// MessageLookup resolves a (category, instance) pair to its localized
// format-string template. Implementations live outside this package; see
// the textdb package for the sqlite-backed one.
type MessageLookup interface {
	GetMessageString(category, instance uint32) (string, bool)
}

// ExtendedMessage is one decoded ~&...~ block.
type ExtendedMessage struct {
	Category uint32
	Instance uint32
	// Decoded argument values in wire order: string, uint32 or int32.
	Args []interface{}
	// Rendered is the template with the arguments substituted, or empty if
	// no template is known for (Category, Instance).
	Rendered string
}

type Decoder struct {
	lookup MessageLookup
	log    logrus.FieldLogger
}

func NewDecoder(lookup MessageLookup, log logrus.FieldLogger) *Decoder {
	return &Decoder{lookup: lookup, log: log}
}

// IsExtended reports whether a message field carries extended blocks.
func IsExtended(field string) bool {
	return strings.HasPrefix(field, marker)
}

// DecodeField decodes every consecutive ~&...~ block in field and returns
// the decoded blocks along with their concatenated rendered text. A block
// that fails to decode is logged and dropped without affecting the blocks
// already decoded; a block whose template is unknown contributes no text but
// does not stop the scan.
func (d *Decoder) DecodeField(field string) ([]ExtendedMessage, string) {
	var (
		messages []ExtendedMessage
		pieces   []string
	)

	data := []byte(field)
	pos := 0
	for pos+len(marker) <= len(data) && string(data[pos:pos+len(marker)]) == marker {
		msg, n, err := d.decodeBlock(data[pos+len(marker):])
		if err != nil {
			d.log.WithError(err).Warn("dropping undecodable extended message block")
			break
		}
		pos += len(marker) + n

		messages = append(messages, msg)
		if rendered := strings.TrimSpace(msg.Rendered); rendered != "" {
			pieces = append(pieces, rendered)
		}
	}

	return messages, strings.Join(pieces, " ")
}

// decodeBlock decodes one block starting just past the marker and returns
// the number of bytes consumed including the terminator.
func (d *Decoder) decodeBlock(data []byte) (ExtendedMessage, int, error) {
	var msg ExtendedMessage

	cur := 0
	var err error
	if msg.Category, cur, err = d.takeBase85(data, cur); err != nil {
		return msg, 0, fmt.Errorf("category: %w", err)
	}
	if msg.Instance, cur, err = d.takeBase85(data, cur); err != nil {
		return msg, 0, fmt.Errorf("instance: %w", err)
	}

	for {
		if cur >= len(data) {
			return msg, 0, fmt.Errorf("argument list missing terminator")
		}
		tag := data[cur]
		cur++

		if tag == terminator {
			break
		}

		var arg interface{}
		switch tag {
		case 'S':
			if cur+2 > len(data) {
				return msg, 0, fmt.Errorf("truncated string length")
			}
			n := int(binary.BigEndian.Uint16(data[cur : cur+2]))
			cur += 2
			if cur+n > len(data) {
				return msg, 0, fmt.Errorf("truncated string of %d bytes", n)
			}
			arg = string(data[cur : cur+n])
			cur += n
		case 's':
			if cur >= len(data) {
				return msg, 0, fmt.Errorf("truncated string length")
			}
			n := int(data[cur])
			cur++
			if cur+n > len(data) {
				return msg, 0, fmt.Errorf("truncated string of %d bytes", n)
			}
			arg = string(data[cur : cur+n])
			cur += n
		case 'I':
			if cur+4 > len(data) {
				return msg, 0, fmt.Errorf("truncated integer")
			}
			arg = binary.BigEndian.Uint32(data[cur : cur+4])
			cur += 4
		case 'i', 'u':
			var v uint32
			if v, cur, err = d.takeBase85(data, cur); err != nil {
				return msg, 0, err
			}
			if tag == 'i' {
				arg = int32(v)
			} else {
				arg = v
			}
		case 'R':
			var cat, inst uint32
			if cat, cur, err = d.takeBase85(data, cur); err != nil {
				return msg, 0, err
			}
			if inst, cur, err = d.takeBase85(data, cur); err != nil {
				return msg, 0, err
			}
			arg = d.resolve(cat, inst)
		case 'l':
			if cur+4 > len(data) {
				return msg, 0, fmt.Errorf("truncated integer")
			}
			inst := binary.BigEndian.Uint32(data[cur : cur+4])
			cur += 4
			arg = d.resolve(lateLookupCategory, inst)
		default:
			return msg, 0, fmt.Errorf("unknown field type 0x%02x", tag)
		}
		msg.Args = append(msg.Args, arg)
	}

	if template, ok := d.lookup.GetMessageString(msg.Category, msg.Instance); ok {
		msg.Rendered = fmt.Sprintf(template, msg.Args...)
	}
	return msg, cur, nil
}

func (d *Decoder) takeBase85(data []byte, cur int) (uint32, int, error) {
	if cur+groupSize > len(data) {
		return 0, cur, fmt.Errorf("truncated base85 group at offset %d", cur)
	}
	v, err := DecodeBase85(data[cur : cur+groupSize])
	if err != nil {
		return 0, cur, err
	}
	return v, cur + groupSize, nil
}

// resolve looks up a cross-reference argument, falling back to a readable
// placeholder when the string table has no entry.
func (d *Decoder) resolve(category, instance uint32) string {
	if s, ok := d.lookup.GetMessageString(category, instance); ok {
		return s
	}
	return fmt.Sprintf("Unknown (%d, %d)", category, instance)
}
