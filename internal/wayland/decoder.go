package wayland

import "encoding/binary"

// Decoder reads wire-format arguments out of an event body. The remote
// stream is authoritative: a body shorter than its arguments yields zero
// values rather than an error.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder wraps an event body.
func NewDecoder(body []byte) *Decoder {
	return &Decoder{data: body}
}

// Uint32 reads a 32-bit unsigned integer argument.
func (d *Decoder) Uint32() uint32 {
	if d.off+4 > len(d.data) {
		d.off = len(d.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

// String reads a string argument: a uint32 length that includes the NUL
// terminator, the bytes, then padding to a 32-bit boundary.
func (d *Decoder) String() string {
	length := d.Uint32()
	if length == 0 {
		return ""
	}
	if d.off+int(length) > len(d.data) {
		d.off = len(d.data)
		return ""
	}
	s := string(d.data[d.off : d.off+int(length)-1])
	d.off += int(length)
	d.off += (4 - int(length)%4) % 4
	return s
}

// Uint32Array reads an array argument holding packed uint32 values: a
// uint32 byte length, the values, then padding to a 32-bit boundary.
func (d *Decoder) Uint32Array() []uint32 {
	length := d.Uint32()
	if length == 0 {
		return nil
	}
	if d.off+int(length) > len(d.data) {
		d.off = len(d.data)
		return nil
	}
	values := make([]uint32, 0, length/4)
	for i := 0; i+4 <= int(length); i += 4 {
		values = append(values, binary.LittleEndian.Uint32(d.data[d.off+i:]))
	}
	d.off += int(length)
	d.off += (4 - int(length)%4) % 4
	return values
}
