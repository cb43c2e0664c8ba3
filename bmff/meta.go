package bmff

import "encoding/binary"

const vendorUUIDLen = 16

// VendorBox is one vendor-tagged entry inside a meta box: a "uuid" child box
// whose payload opens with a 16-byte vendor identifier.
type VendorBox struct {
	UUID [vendorUUIDLen]byte
	Data []byte
}

// VendorBoxes scans a meta box's payload for "uuid" child boxes and returns
// them in file order. Non-uuid siblings are skipped using the same size
// arithmetic as FindBox; extended-size siblings advance by their 16-byte
// header like any other box.
func VendorBoxes(metaPayload []byte) []VendorBox {
	var out []VendorBox
	offset := 0
	for {
		h, ok := nextBox(metaPayload, offset)
		if !ok {
			return out
		}
		if h.typ == TypeUUID {
			payloadStart := h.offset + h.headerLen
			end := h.offset + int(h.size)
			if end-payloadStart >= vendorUUIDLen {
				var v VendorBox
				copy(v.UUID[:], metaPayload[payloadStart:payloadStart+vendorUUIDLen])
				v.Data = metaPayload[payloadStart+vendorUUIDLen : end]
				out = append(out, v)
			}
		}
		offset = h.offset + int(h.size)
	}
}

// BuildMetaBox serializes vendor entries as "uuid" boxes and wraps them in a
// meta full box (version+flags zero).
func BuildMetaBox(entries []VendorBox) []byte {
	var children []byte
	for _, e := range entries {
		body := make([]byte, 0, vendorUUIDLen+len(e.Data))
		body = append(body, e.UUID[:]...)
		body = append(body, e.Data...)
		children = append(children, buildBox(TypeUUID, body)...)
	}
	payload := make([]byte, fullBoxPrefixLen, fullBoxPrefixLen+len(children))
	binary.BigEndian.PutUint32(payload[:fullBoxPrefixLen], 0)
	payload = append(payload, children...)
	return buildBox(TypeMeta, payload)
}
