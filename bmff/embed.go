package bmff

// VendorUUID is the fixed 16-byte TRACE vendor tag carried by provenance
// uuid boxes: the ASCII bytes "TRACE-Prov-2024-".
var VendorUUID = [vendorUUIDLen]byte{
	'T', 'R', 'A', 'C', 'E', '-', 'P', 'r', 'o', 'v', '-', '2', '0', '2', '4', '-',
}

// EmbedPayload returns a copy of the container with payload stored in a
// TRACE vendor uuid box under moov/meta.
//
// The edit is span surgery, not a re-serialization: non-TRACE bytes inside an
// existing meta box (foreign vendor entries, hdlr, anything else) pass
// through verbatim, a missing meta box is synthesized, and boxes keep their
// positions. Re-stamping replaces the TRACE entry, never duplicates it, so
// StripPayload inverts this operation byte-exactly. The input buffer is
// never mutated.
func EmbedPayload(buf []byte, payload []byte) ([]byte, error) {
	moov := FindBox(buf, TypeMoov, 0)
	if moov == nil {
		return nil, ErrMissingMoov
	}

	body := make([]byte, 0, vendorUUIDLen+len(payload))
	body = append(body, VendorUUID[:]...)
	body = append(body, payload...)
	entry := buildBox(TypeUUID, body)

	var newMeta []byte
	meta := FindBox(moov.Payload, TypeMeta, 0)
	if meta != nil {
		children := append(dropTraceSpans(meta.Payload), entry...)
		newMeta = rebuildMeta(metaPrefix(moov.Payload, meta), children)
	} else {
		newMeta = BuildMetaBox([]VendorBox{{UUID: VendorUUID, Data: payload}})
	}

	newMoovPayload := replaceMetaSpan(moov.Payload, meta, newMeta)
	return replaceSpan(buf, moov.Offset, int(moov.Size), buildBox(TypeMoov, newMoovPayload)), nil
}

// ExtractPayload is the exact inverse read path of EmbedPayload, without
// mutation. A buffer with no moov, no meta, or no TRACE vendor box yields
// ErrNoMetadata; that is a signal, not a structural error.
func ExtractPayload(buf []byte) ([]byte, error) {
	moov := FindBox(buf, TypeMoov, 0)
	if moov == nil {
		return nil, ErrNoMetadata
	}
	meta := FindBox(moov.Payload, TypeMeta, 0)
	if meta == nil {
		return nil, ErrNoMetadata
	}
	for _, e := range VendorBoxes(meta.Payload) {
		if e.UUID == VendorUUID {
			return e.Data, nil
		}
	}
	return nil, ErrNoMetadata
}

// StripPayload returns the container's content bytes: buf with any TRACE
// vendor entry removed, and the meta box itself removed when that leaves it
// childless. Content hashing runs over this form on both the stamp and
// verify paths, so embedded evidence never perturbs the hash it attests to.
//
// A buffer with nothing to strip is returned as-is.
func StripPayload(buf []byte) []byte {
	moov := FindBox(buf, TypeMoov, 0)
	if moov == nil {
		return buf
	}
	meta := FindBox(moov.Payload, TypeMeta, 0)
	if meta == nil {
		return buf
	}

	children := dropTraceSpans(meta.Payload)
	if len(children) == len(meta.Payload) && len(children) > 0 {
		return buf
	}

	var newMeta []byte // empty slice removes the meta span entirely
	if len(children) > 0 {
		newMeta = rebuildMeta(metaPrefix(moov.Payload, meta), children)
	}
	newMoovPayload := replaceMetaSpan(moov.Payload, meta, newMeta)
	return replaceSpan(buf, moov.Offset, int(moov.Size), buildBox(TypeMoov, newMoovPayload))
}

// dropTraceSpans copies the meta children, skipping TRACE-tagged uuid box
// spans. A malformed tail that terminates the scan is carried over verbatim.
func dropTraceSpans(children []byte) []byte {
	out := make([]byte, 0, len(children))
	offset := 0
	for {
		h, ok := nextBox(children, offset)
		if !ok {
			return append(out, children[offset:]...)
		}
		end := h.offset + int(h.size)
		if !isTraceEntry(children, h) {
			out = append(out, children[h.offset:end]...)
		}
		offset = end
	}
}

func isTraceEntry(children []byte, h header) bool {
	if h.typ != TypeUUID {
		return false
	}
	start := h.offset + h.headerLen
	if start+vendorUUIDLen > h.offset+int(h.size) {
		return false
	}
	return string(children[start:start+vendorUUIDLen]) == string(VendorUUID[:])
}

// metaPrefix reads the meta box's version+flags bytes out of the moov
// payload, so a rebuild preserves whatever the original carried.
func metaPrefix(moovPayload []byte, meta *Box) [fullBoxPrefixLen]byte {
	var prefix [fullBoxPrefixLen]byte
	start := meta.Offset + meta.HeaderLen
	copy(prefix[:], moovPayload[start:start+fullBoxPrefixLen])
	return prefix
}

func rebuildMeta(prefix [fullBoxPrefixLen]byte, children []byte) []byte {
	payload := make([]byte, 0, fullBoxPrefixLen+len(children))
	payload = append(payload, prefix[:]...)
	payload = append(payload, children...)
	return buildBox(TypeMeta, payload)
}

// replaceMetaSpan swaps the meta span inside a moov payload for newMeta. A
// nil meta appends, an empty newMeta removes.
func replaceMetaSpan(moovPayload []byte, meta *Box, newMeta []byte) []byte {
	if meta == nil {
		out := make([]byte, 0, len(moovPayload)+len(newMeta))
		out = append(out, moovPayload...)
		return append(out, newMeta...)
	}
	return replaceSpan(moovPayload, meta.Offset, int(meta.Size), newMeta)
}

func replaceSpan(buf []byte, offset, size int, replacement []byte) []byte {
	out := make([]byte, 0, len(buf)-size+len(replacement))
	out = append(out, buf[:offset]...)
	out = append(out, replacement...)
	return append(out, buf[offset+size:]...)
}
