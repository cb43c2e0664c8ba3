package attach

import (
	"errors"
	"path/filepath"
	"strings"

	"xdao.co/traceprov/bmff"
	"xdao.co/traceprov/webm"
)

// ErrNoEmbedded signals that a container carries no embedded evidence. It is
// the codec-neutral form of the per-format "no metadata" signals and triggers
// sidecar fallback rather than failing resolution.
var ErrNoEmbedded = errors.New("attach: no embedded provenance")

// IsNoEmbedded reports whether err signals absent embedded evidence rather
// than a structural or decode failure.
func IsNoEmbedded(err error) bool { return errors.Is(err, ErrNoEmbedded) }

// Codec embeds and extracts envelope bytes for one container format.
//
// Embed returns a new buffer and never mutates its input; a structurally
// invalid container is a hard error. Extract returns ErrNoEmbedded when the
// container is intact but carries no evidence. Strip returns the asset's
// content bytes with any embedded evidence removed; content hashes are
// computed over the stripped form so embedding never perturbs the hash it
// attests to, and Strip(Embed(buf, e)) must round-trip byte-exactly.
type Codec interface {
	Name() string
	Embed(buf []byte, envelope []byte) ([]byte, error)
	Extract(buf []byte) ([]byte, error)
	Strip(buf []byte) []byte
}

// ForPath selects a codec from the asset's file extension. Only .webm selects
// the marker codec; every other extension is treated as MP4-family, matching
// the media-type default used when building manifests.
func ForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		return webmCodec{}
	}
	return mp4Codec{}
}

type mp4Codec struct{}

func (mp4Codec) Name() string { return "mp4" }

func (mp4Codec) Embed(buf []byte, envelope []byte) ([]byte, error) {
	return bmff.EmbedPayload(buf, envelope)
}

func (mp4Codec) Extract(buf []byte) ([]byte, error) {
	payload, err := bmff.ExtractPayload(buf)
	if err != nil {
		if bmff.IsNoMetadata(err) {
			return nil, ErrNoEmbedded
		}
		return nil, err
	}
	return payload, nil
}

func (mp4Codec) Strip(buf []byte) []byte { return bmff.StripPayload(buf) }

type webmCodec struct{}

func (webmCodec) Name() string { return "webm" }

func (webmCodec) Embed(buf []byte, envelope []byte) ([]byte, error) {
	return webm.AppendMarker(buf, envelope), nil
}

func (webmCodec) Extract(buf []byte) ([]byte, error) {
	envelope, err := webm.ExtractMarker(buf)
	if err != nil {
		if webm.IsNoMarker(err) {
			return nil, ErrNoEmbedded
		}
		return nil, err
	}
	return envelope, nil
}

func (webmCodec) Strip(buf []byte) []byte { return webm.StripMarker(buf) }
