package attach

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	sidecarManifestExt  = ".prov.json"
	sidecarSignatureExt = ".prov.sig"
)

// ErrNoSidecar signals that the asset has no complete sidecar pair. A
// manifest without its signature file (or the reverse) counts as absent.
var ErrNoSidecar = errors.New("attach: no sidecar files")

// SidecarPaths returns the sidecar locations for an asset: given name.ext,
// the manifest lives at name.prov.json and the signature at name.prov.sig,
// both siblings of the asset.
func SidecarPaths(assetPath string) (manifestPath, signaturePath string) {
	stem := strings.TrimSuffix(assetPath, filepath.Ext(assetPath))
	return stem + sidecarManifestExt, stem + sidecarSignatureExt
}

// WriteSidecar writes the canonical manifest bytes and signature text next to
// the asset. Existing sidecars are overwritten; re-stamping replaces prior
// evidence.
func WriteSidecar(assetPath string, canonical []byte, signature string) error {
	manifestPath, signaturePath := SidecarPaths(assetPath)
	if err := os.WriteFile(manifestPath, canonical, 0o644); err != nil {
		return err
	}
	return os.WriteFile(signaturePath, []byte(signature), 0o644)
}

// ReadSidecar loads the sidecar pair for an asset. Either file missing yields
// ErrNoSidecar; any other read failure propagates.
func ReadSidecar(assetPath string) (canonical []byte, signature string, err error) {
	manifestPath, signaturePath := SidecarPaths(assetPath)
	canonical, err = os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNoSidecar
		}
		return nil, "", err
	}
	sig, err := os.ReadFile(signaturePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNoSidecar
		}
		return nil, "", err
	}
	return canonical, strings.TrimSpace(string(sig)), nil
}
