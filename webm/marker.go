// Package webm embeds provenance envelopes in WebM files through an appended
// trailing marker rather than a structural EBML edit.
//
// The marker is plain text appended after the container's own bytes:
//
//	<!--TRACEPROV:<base64 envelope>-->
//
// Standard re-encoding or trimming tools destroy it. That is a documented
// limitation of the degraded mode, not a defect.
package webm

import (
	"bytes"
	"encoding/base64"
	"errors"
)

const (
	markerPrefix = "<!--TRACEPROV:"
	markerSuffix = "-->"
)

// ErrNoMarker signals that the buffer carries no provenance marker. Like the
// MP4 path's missing-metadata signal, callers fall back to sidecar files.
var ErrNoMarker = errors.New("webm: no provenance marker")

// IsNoMarker reports whether err signals absence of a trailing marker rather
// than a decode failure.
func IsNoMarker(err error) bool { return errors.Is(err, ErrNoMarker) }

// AppendMarker returns a copy of buf with the envelope appended as a trailing
// marker. Any existing marker is removed first, so re-stamping never stacks
// markers.
func AppendMarker(buf []byte, envelope []byte) []byte {
	trimmed := StripMarker(buf)
	encoded := base64.StdEncoding.EncodeToString(envelope)
	out := make([]byte, 0, len(trimmed)+len(markerPrefix)+len(encoded)+len(markerSuffix))
	out = append(out, trimmed...)
	out = append(out, markerPrefix...)
	out = append(out, encoded...)
	out = append(out, markerSuffix...)
	return out
}

// ExtractMarker scans buf from the end for the marker prefix, then forward
// for the closing delimiter, and decodes the enclosed base64 envelope.
//
// An absent or unterminated marker yields ErrNoMarker. A present but
// undecodable payload is a real error: the marker was found and then failed.
func ExtractMarker(buf []byte) ([]byte, error) {
	start := bytes.LastIndex(buf, []byte(markerPrefix))
	if start < 0 {
		return nil, ErrNoMarker
	}
	body := buf[start+len(markerPrefix):]
	end := bytes.Index(body, []byte(markerSuffix))
	if end < 0 {
		return nil, ErrNoMarker
	}
	envelope, err := base64.StdEncoding.DecodeString(string(body[:end]))
	if err != nil {
		return nil, errors.New("webm: malformed marker payload")
	}
	return envelope, nil
}

// StripMarker removes the last complete marker span when present, matching
// the backward scan used by ExtractMarker. Bytes outside that span are
// untouched; a buffer without a marker comes back as-is. Content hashing
// runs over this form on both the stamp and verify paths.
func StripMarker(buf []byte) []byte {
	start := bytes.LastIndex(buf, []byte(markerPrefix))
	if start < 0 {
		return buf
	}
	body := buf[start+len(markerPrefix):]
	end := bytes.Index(body, []byte(markerSuffix))
	if end < 0 {
		return buf
	}
	rest := body[end+len(markerSuffix):]
	out := make([]byte, 0, start+len(rest))
	out = append(out, buf[:start]...)
	return append(out, rest...)
}
