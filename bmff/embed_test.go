package bmff

import (
	"bytes"
	"testing"
)

// withMetaChildren wraps raw child boxes in a meta full box without going
// through the vendor-entry builder.
func withMetaChildren(children ...[]byte) []byte {
	payload := make([]byte, fullBoxPrefixLen)
	for _, c := range children {
		payload = append(payload, c...)
	}
	return buildBox(TypeMeta, payload)
}

func otherVendorUUID() [vendorUUIDLen]byte {
	var u [vendorUUIDLen]byte
	copy(u[:], "com.example.meta")
	return u
}

func TestEmbedExtract_RoundTrip(t *testing.T) {
	buf := testContainer(buildBox("mvhd", make([]byte, 100)))
	payload := []byte(`{"manifest":{},"signature":"c2ln"}`)

	stamped, err := EmbedPayload(buf, payload)
	if err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}
	got, err := ExtractPayload(stamped)
	if err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload round trip: got %q want %q", got, payload)
	}

	// The rest of the container survives.
	if FindBox(stamped, "ftyp", 0) == nil || FindBox(stamped, "mdat", 0) == nil {
		t.Fatalf("sibling boxes lost during embed")
	}
	moov := FindBox(stamped, TypeMoov, 0)
	if moov == nil {
		t.Fatalf("moov lost during embed")
	}
	if FindBox(moov.Payload, "mvhd", 0) == nil {
		t.Fatalf("moov child lost during embed")
	}
}

func TestEmbedPayload_SynthesizesMeta(t *testing.T) {
	buf := testContainer() // moov with no meta child

	stamped, err := EmbedPayload(buf, []byte("payload"))
	if err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}
	moov := FindBox(stamped, TypeMoov, 0)
	if moov == nil || FindBox(moov.Payload, TypeMeta, 0) == nil {
		t.Fatalf("meta box not synthesized")
	}
	got, err := ExtractPayload(stamped)
	if err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("payload: %q", got)
	}
}

func TestEmbedPayload_ReplacesNeverDuplicates(t *testing.T) {
	buf := testContainer(buildBox("mvhd", make([]byte, 16)))

	first, err := EmbedPayload(buf, []byte("first stamp"))
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	second, err := EmbedPayload(first, []byte("second stamp"))
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}

	moov := FindBox(second, TypeMoov, 0)
	meta := FindBox(moov.Payload, TypeMeta, 0)
	if meta == nil {
		t.Fatalf("meta lost on re-stamp")
	}
	var traceCount int
	for _, e := range VendorBoxes(meta.Payload) {
		if e.UUID == VendorUUID {
			traceCount++
		}
	}
	if traceCount != 1 {
		t.Fatalf("TRACE vendor boxes after re-stamp: got %d want 1", traceCount)
	}

	got, err := ExtractPayload(second)
	if err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if string(got) != "second stamp" {
		t.Fatalf("re-stamp payload: %q", got)
	}
}

func TestEmbedPayload_PreservesOtherVendorEntries(t *testing.T) {
	foreign := VendorBox{UUID: otherVendorUUID(), Data: []byte("foreign data")}
	buf := testContainer(BuildMetaBox([]VendorBox{foreign}))

	stamped, err := EmbedPayload(buf, []byte("ours"))
	if err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}

	moov := FindBox(stamped, TypeMoov, 0)
	meta := FindBox(moov.Payload, TypeMeta, 0)
	entries := VendorBoxes(meta.Payload)
	if len(entries) != 2 {
		t.Fatalf("vendor entries: got %d want 2", len(entries))
	}
	var foundForeign bool
	for _, e := range entries {
		if e.UUID == foreign.UUID && bytes.Equal(e.Data, foreign.Data) {
			foundForeign = true
		}
	}
	if !foundForeign {
		t.Fatalf("foreign vendor entry lost during embed")
	}
}

func TestEmbedPayload_MissingMoov(t *testing.T) {
	buf := buildBox("ftyp", []byte("isom"))
	if _, err := EmbedPayload(buf, []byte("x")); err != ErrMissingMoov {
		t.Fatalf("expected ErrMissingMoov, got %v", err)
	}
}

func TestEmbedPayload_DoesNotMutateInput(t *testing.T) {
	buf := testContainer(BuildMetaBox([]VendorBox{{UUID: VendorUUID, Data: []byte("old")}}))
	snapshot := append([]byte(nil), buf...)
	if _, err := EmbedPayload(buf, []byte("new")); err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}
	if !bytes.Equal(buf, snapshot) {
		t.Fatalf("input buffer mutated")
	}
}

func TestExtractPayload_NoMetadataSignals(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
	}{
		{"no moov", buildBox("ftyp", []byte("isom"))},
		{"no meta", testContainer(buildBox("mvhd", make([]byte, 8)))},
		{"empty meta", testContainer(BuildMetaBox(nil))},
		{"foreign vendor only", testContainer(BuildMetaBox([]VendorBox{
			{UUID: otherVendorUUID(), Data: []byte("x")},
		}))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractPayload(tc.buf)
			if err != ErrNoMetadata {
				t.Fatalf("expected ErrNoMetadata, got %v", err)
			}
			if !IsNoMetadata(err) {
				t.Fatalf("IsNoMetadata = false")
			}
		})
	}
}

func TestStripPayload_InvertsEmbed(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
	}{
		{"no meta", testContainer(buildBox("mvhd", make([]byte, 32)))},
		{"meta with hdlr", testContainer(buildBox("mvhd", make([]byte, 16)), withMetaChildren(buildBox("hdlr", make([]byte, 24))))},
		{"meta with foreign vendor", testContainer(BuildMetaBox([]VendorBox{
			{UUID: otherVendorUUID(), Data: []byte("keep me")},
		}))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stamped, err := EmbedPayload(tc.buf, []byte("payload"))
			if err != nil {
				t.Fatalf("EmbedPayload: %v", err)
			}
			if got := StripPayload(stamped); !bytes.Equal(got, tc.buf) {
				t.Fatalf("strip did not invert embed byte-exactly")
			}
		})
	}
}

func TestStripPayload_NormalizesEmptyMeta(t *testing.T) {
	// A pre-existing childless meta strips to the same bytes whether or not
	// evidence was embedded into it in between.
	buf := testContainer(buildBox("mvhd", make([]byte, 8)), BuildMetaBox(nil))

	stamped, err := EmbedPayload(buf, []byte("payload"))
	if err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}
	if got := StripPayload(stamped); !bytes.Equal(got, StripPayload(buf)) {
		t.Fatalf("strip of stamped and unstamped forms diverge")
	}
	if bytes.Contains(StripPayload(buf), []byte(TypeMeta)) {
		t.Fatalf("childless meta survived strip")
	}
}

func TestStripPayload_NoEvidenceIsIdentity(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
	}{
		{"no moov", buildBox("ftyp", []byte("isom"))},
		{"no meta", testContainer(buildBox("mvhd", make([]byte, 8)))},
		{"meta with hdlr only", testContainer(withMetaChildren(buildBox("hdlr", make([]byte, 24))))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripPayload(tc.buf); !bytes.Equal(got, tc.buf) {
				t.Fatalf("strip modified a buffer with nothing to strip")
			}
		})
	}
}

func TestEmbedPayload_PreservesBoxPositions(t *testing.T) {
	buf := testContainer(buildBox("mvhd", make([]byte, 16)))
	origMoov := FindBox(buf, TypeMoov, 0)

	stamped, err := EmbedPayload(buf, []byte("payload"))
	if err != nil {
		t.Fatalf("EmbedPayload: %v", err)
	}
	moov := FindBox(stamped, TypeMoov, 0)
	if moov.Offset != origMoov.Offset {
		t.Fatalf("moov moved: got offset %d want %d", moov.Offset, origMoov.Offset)
	}
	if FindBox(stamped, "ftyp", 0).Offset != FindBox(buf, "ftyp", 0).Offset {
		t.Fatalf("ftyp moved")
	}
}

func TestVendorBoxes_SkipsNonUUIDAndShortEntries(t *testing.T) {
	var payload []byte
	payload = append(payload, buildBox("hdlr", make([]byte, 24))...)
	payload = append(payload, buildBox(TypeUUID, []byte("short"))...) // under 16 bytes
	body := append(append([]byte(nil), VendorUUID[:]...), []byte("data")...)
	payload = append(payload, buildBox(TypeUUID, body)...)

	entries := VendorBoxes(payload)
	if len(entries) != 1 {
		t.Fatalf("entries: got %d want 1", len(entries))
	}
	if entries[0].UUID != VendorUUID || string(entries[0].Data) != "data" {
		t.Fatalf("entry mismatch: %+v", entries[0])
	}
}

func TestVendorBoxes_ExtendedSizeSibling(t *testing.T) {
	var payload []byte
	payload = append(payload, extendedBox("hdlr", make([]byte, 20))...)
	body := append(append([]byte(nil), VendorUUID[:]...), []byte("after ext")...)
	payload = append(payload, buildBox(TypeUUID, body)...)

	entries := VendorBoxes(payload)
	if len(entries) != 1 || string(entries[0].Data) != "after ext" {
		t.Fatalf("vendor entry after extended-size sibling not found: %+v", entries)
	}
}

func TestBuildMetaBox_RoundTrip(t *testing.T) {
	in := []VendorBox{
		{UUID: VendorUUID, Data: []byte("one")},
		{UUID: otherVendorUUID(), Data: nil},
	}
	meta := FindBox(BuildMetaBox(in), TypeMeta, 0)
	if meta == nil {
		t.Fatalf("built meta does not parse")
	}
	out := VendorBoxes(meta.Payload)
	if len(out) != len(in) {
		t.Fatalf("entries: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].UUID != in[i].UUID || !bytes.Equal(out[i].Data, in[i].Data) {
			t.Fatalf("entry %d mismatch: %+v", i, out[i])
		}
	}
}
