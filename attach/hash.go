package attach

import (
	"os"

	"xdao.co/traceprov/manifest"
)

// ContentHash computes the asset's content digest with any attached evidence
// stripped first. Stamping pipelines pass this to the manifest builder so a
// manifest records the hash the verifier will recompute, whether or not the
// evidence ends up embedded, and re-stamping always hashes the same content.
func ContentHash(assetPath string) (string, error) {
	buf, err := os.ReadFile(assetPath)
	if err != nil {
		return "", err
	}
	return manifest.HashBytes(ForPath(assetPath).Strip(buf)), nil
}
