// Package bmff implements the minimal ISO-BMFF (MP4-family) box engine used
// to embed and extract provenance metadata inside a container's own byte
// structure.
//
// The container is treated as an arena of bytes plus parsed box descriptors
// (offset + length), never as a pointer graph. All mutation is
// copy-and-splice over whole buffers.
package bmff

import "encoding/binary"

const (
	boxHeaderLen      = 8  // size(4) + type(4)
	extendedHeaderLen = 16 // size(4)=1 + type(4) + largesize(8)
	fullBoxPrefixLen  = 4  // version(1) + flags(3)
)

// Box is a node in the container's self-describing tree.
//
// Invariant: Size equals HeaderLen plus the payload length (plus the full-box
// prefix for meta) and equals the exact span consumed in the parent buffer.
// Violating this corrupts every sibling box that follows.
type Box struct {
	Type      string // 4-byte tag
	Offset    int    // byte offset of the box start in the scanned buffer
	Size      uint64 // total span including the header
	HeaderLen int    // 8, or 16 for extended-size boxes
	Payload   []byte // view into the scanned buffer
}

// header holds the decoded fixed header of one box during a scan.
type header struct {
	typ       string
	offset    int
	size      uint64
	headerLen int
}

// nextBox decodes the box header at offset.
//
// Returns ok=false when the scan must terminate: truncated header, declared
// size of zero (guards against infinite loops on malformed input), a size
// smaller than its own header, or a span overrunning the buffer.
func nextBox(buf []byte, offset int) (header, bool) {
	if offset < 0 || offset+boxHeaderLen > len(buf) {
		return header{}, false
	}
	size := uint64(binary.BigEndian.Uint32(buf[offset:]))
	headerLen := boxHeaderLen
	typ := string(buf[offset+4 : offset+8])
	if size == 1 {
		// Extended-size marker: the true 64-bit size follows the tag.
		if offset+extendedHeaderLen > len(buf) {
			return header{}, false
		}
		size = binary.BigEndian.Uint64(buf[offset+boxHeaderLen:])
		headerLen = extendedHeaderLen
	}
	if size == 0 {
		return header{}, false
	}
	if size < uint64(headerLen) {
		return header{}, false
	}
	if uint64(offset)+size > uint64(len(buf)) {
		return header{}, false
	}
	return header{typ: typ, offset: offset, size: size, headerLen: headerLen}, true
}

// FindBox linearly scans one nesting level of buf for the first box tagged
// tag, starting at searchStart. Returns nil when no such box exists before
// the scan terminates.
//
// For a "meta" box the returned payload additionally skips the 4-byte
// version+flags full-box prefix.
func FindBox(buf []byte, tag string, searchStart int) *Box {
	offset := searchStart
	for {
		h, ok := nextBox(buf, offset)
		if !ok {
			return nil
		}
		if h.typ == tag {
			payloadStart := h.offset + h.headerLen
			end := h.offset + int(h.size)
			if tag == TypeMeta {
				if payloadStart+fullBoxPrefixLen > end {
					return nil
				}
				payloadStart += fullBoxPrefixLen
			}
			return &Box{
				Type:      h.typ,
				Offset:    h.offset,
				Size:      h.size,
				HeaderLen: h.headerLen,
				Payload:   buf[payloadStart:end],
			}
		}
		offset = h.offset + int(h.size)
	}
}

// Box type tags used by the embed protocol.
const (
	TypeMoov = "moov"
	TypeMeta = "meta"
	TypeUUID = "uuid"
)

// buildBox serializes a box with the given tag and payload, choosing the
// extended 64-bit size form only when the 32-bit field cannot hold the span.
func buildBox(tag string, payload []byte) []byte {
	total := uint64(boxHeaderLen) + uint64(len(payload))
	if total <= 0xFFFFFFFF {
		out := make([]byte, 0, total)
		var hdr [boxHeaderLen]byte
		binary.BigEndian.PutUint32(hdr[:4], uint32(total))
		copy(hdr[4:], tag)
		out = append(out, hdr[:]...)
		return append(out, payload...)
	}
	total = uint64(extendedHeaderLen) + uint64(len(payload))
	out := make([]byte, 0, total)
	var hdr [extendedHeaderLen]byte
	binary.BigEndian.PutUint32(hdr[:4], 1)
	copy(hdr[4:8], tag)
	binary.BigEndian.PutUint64(hdr[8:], total)
	out = append(out, hdr[:]...)
	return append(out, payload...)
}

// SpliceBox removes the first top-level box tagged tag from buf and appends
// replacement at the end of the remaining buffer.
//
// Insertion position does not affect correctness of the box tree, only
// container-tooling convention. The input buffer is never mutated.
func SpliceBox(buf []byte, tag string, replacement []byte) ([]byte, error) {
	b := FindBox(buf, tag, 0)
	if b == nil {
		return nil, ErrBoxNotFound
	}
	out := make([]byte, 0, len(buf)-int(b.Size)+len(replacement))
	out = append(out, buf[:b.Offset]...)
	out = append(out, buf[b.Offset+int(b.Size):]...)
	out = append(out, replacement...)
	return out, nil
}
