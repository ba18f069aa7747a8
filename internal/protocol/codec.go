package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncated indicates the packet body ended before the next field.
	ErrTruncated = errors.New("truncated packet body")
	// ErrUnknownType indicates no format is registered for (direction, type).
	ErrUnknownType = errors.New("unknown packet type")
	// ErrArityMismatch indicates the supplied arguments do not match the
	// registered format in count or type.
	ErrArityMismatch = errors.New("arguments do not match format")
)

// DecodeError wraps a failure to decode one packet body. Decode errors are
// local to a single packet; the session logs and drops the packet.
type DecodeError struct {
	Direction Direction
	Type      PacketType
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s packet type %d: %s", e.Direction, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError wraps a failure to encode a packet.
type EncodeError struct {
	Type PacketType
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode packet type %d: %s", e.Type, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Decode parses a packet body into its typed argument list according to the
// format registered for (dir, t).
func Decode(dir Direction, t PacketType, body []byte) (*Packet, error) {
	format, ok := formatFor(dir, t)
	if !ok {
		return nil, &DecodeError{Direction: dir, Type: t, Err: ErrUnknownType}
	}

	r := &reader{data: body}
	args := make([]interface{}, 0, len(format))

	for _, code := range format {
		var (
			v   interface{}
			err error
		)
		switch code {
		case 'I':
			v, err = r.uint32()
		case 'S':
			v, err = r.string()
		case 'G':
			v, err = r.group()
		case 'i':
			v, err = r.uint32Slice()
		case 's':
			v, err = r.stringSlice()
		default:
			err = fmt.Errorf("format code %q not in alphabet", code)
		}
		if err != nil {
			return nil, &DecodeError{Direction: dir, Type: t, Err: err}
		}
		args = append(args, v)
	}

	return &Packet{Direction: dir, Type: t, Args: args}, nil
}

// Encode serializes a packet's arguments to a body per the registered format.
// The framing header is not included; see WriteFrame.
func Encode(p *Packet) ([]byte, error) {
	format, ok := formatFor(p.Direction, p.Type)
	if !ok {
		return nil, &EncodeError{Type: p.Type, Err: ErrUnknownType}
	}
	if len(p.Args) != len(format) {
		return nil, &EncodeError{Type: p.Type, Err: fmt.Errorf(
			"%w: have %d args, format %q wants %d", ErrArityMismatch, len(p.Args), format, len(format))}
	}

	buf := new(bytes.Buffer)
	for i, code := range format {
		if err := writeArg(buf, code, p.Args[i]); err != nil {
			return nil, &EncodeError{Type: p.Type, Err: fmt.Errorf("%w: arg %d: %s", ErrArityMismatch, i, err)}
		}
	}
	return buf.Bytes(), nil
}

func writeArg(buf *bytes.Buffer, code rune, arg interface{}) error {
	switch code {
	case 'I':
		v, ok := arg.(uint32)
		if !ok {
			return fmt.Errorf("want uint32, have %T", arg)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	case 'S':
		v, ok := arg.(string)
		if !ok {
			return fmt.Errorf("want string, have %T", arg)
		}
		if len(v) > 0xFFFF {
			return fmt.Errorf("string length %d exceeds u16", len(v))
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(len(v)))
		buf.Write(b[:])
		buf.WriteString(v)
	case 'G':
		v, ok := arg.(GroupID)
		if !ok {
			return fmt.Errorf("want GroupID, have %T", arg)
		}
		buf.Write(v[:])
	case 'i':
		v, ok := arg.([]uint32)
		if !ok {
			return fmt.Errorf("want []uint32, have %T", arg)
		}
		var b [4]byte
		binary.BigEndian.PutUint16(b[:2], uint16(len(v)))
		buf.Write(b[:2])
		for _, n := range v {
			binary.BigEndian.PutUint32(b[:], n)
			buf.Write(b[:])
		}
	case 's':
		v, ok := arg.([]string)
		if !ok {
			return fmt.Errorf("want []string, have %T", arg)
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(len(v)))
		buf.Write(b[:])
		for _, s := range v {
			binary.BigEndian.PutUint16(b[:], uint16(len(s)))
			buf.Write(b[:])
			buf.WriteString(s)
		}
	}
	return nil
}

// reader is a bounds-checked cursor over a packet body.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrTruncated, n, r.pos, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) group() (GroupID, error) {
	var g GroupID
	b, err := r.take(5)
	if err != nil {
		return g, err
	}
	copy(g[:], b)
	return g, nil
}

func (r *reader) uint32Slice() ([]uint32, error) {
	n, err := r.uint16()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = r.uint32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) stringSlice() ([]string, error) {
	n, err := r.uint16()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = r.string(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// frameHeaderSize is the length of the wire framing header: a 2-byte
// big-endian packet type followed by a 2-byte big-endian body length.
const frameHeaderSize = 4

// ReadFrame reads one wire frame from r, blocking until the full declared
// body has arrived or the reader fails. Returns the packet type and raw body.
func ReadFrame(r io.Reader) (PacketType, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	packetType := PacketType(binary.BigEndian.Uint16(header[0:2]))
	bodyLen := int(binary.BigEndian.Uint16(header[2:4]))

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		// A short body after a complete header means the peer hung up
		// mid-frame; normalize so callers see a read failure, not EOF.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return packetType, nil, err
	}
	return packetType, body, nil
}

// WriteFrame writes one wire frame to w.
func WriteFrame(w io.Writer, t PacketType, body []byte) error {
	if len(body) > 0xFFFF {
		return &EncodeError{Type: t, Err: fmt.Errorf("body length %d exceeds u16", len(body))}
	}

	frame := make([]byte, frameHeaderSize+len(body))
	binary.BigEndian.PutUint16(frame[0:2], uint16(t))
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(body)))
	copy(frame[frameHeaderSize:], body)

	_, err := w.Write(frame)
	return err
}
