package ikp

import (
	"encoding/binary"
	"fmt"
)

// reader is a bounds-checked cursor over a packet. Every read is validated
// against the remaining length, so a truncated packet surfaces as
// ErrTruncated instead of an out-of-range read.
type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

type header struct {
	groupID     string
	version     uint32
	memberCount int
}

// parseHeader validates the fixed header and returns a reader positioned at
// the first member entry. member_count bounds are enforced here, before any
// count-proportional work.
func parseHeader(packet []byte) (header, *reader, error) {
	r := &reader{buf: packet}

	magic, err := r.u32()
	if err != nil {
		return header{}, nil, err
	}
	if magic != Magic {
		return header{}, nil, fmt.Errorf("%w: got %#08x", ErrBadMagic, magic)
	}

	gid, err := r.take(GroupIDSize)
	if err != nil {
		return header{}, nil, err
	}

	version, err := r.u32()
	if err != nil {
		return header{}, nil, err
	}

	count, err := r.u8()
	if err != nil {
		return header{}, nil, err
	}
	if count == 0 {
		return header{}, nil, ErrNoMembers
	}
	if int(count) > MaxMembers {
		return header{}, nil, fmt.Errorf("%w: %d > %d", ErrTooManyMembers, count, MaxMembers)
	}

	return header{
		groupID:     string(gid),
		version:     version,
		memberCount: int(count),
	}, r, nil
}
