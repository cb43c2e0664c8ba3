package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/traceprov/keys"
	"xdao.co/traceprov/manifest"
)

// buildStamped signs a manifest over a throwaway asset with the given
// content, optionally linked to a predecessor via inputHash.
func buildStamped(t *testing.T, dir, name, content, inputHash string) *manifest.Stamped {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	_, priv, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	op := manifest.OpAIGenerated
	if inputHash != "" {
		op = manifest.OpAITransformed
	}
	stamped, err := manifest.Build(manifest.BuildParams{
		AssetPath: path,
		Operation: op,
		Provider:  manifest.Provider{ID: "p1", Name: "Provider One"},
		Model:     manifest.Model{ID: "m1", Version: "1.0"},
		InputHash: inputHash,
	}, priv)
	if err != nil {
		t.Fatalf("build manifest: %v", err)
	}
	return stamped
}

func archiveStamped(t *testing.T, a Archive, s *manifest.Stamped) {
	t.Helper()
	if _, err := a.Put(s.Canonical); err != nil {
		t.Fatalf("archive manifest: %v", err)
	}
}

func TestChain_WalksToRoot(t *testing.T) {
	d := mustOpen(t)
	dir := t.TempDir()

	root := buildStamped(t, dir, "root.mp4", "original content", "")
	mid := buildStamped(t, dir, "mid.mp4", "first derivation", root.Manifest.Output.Hash)
	tip := buildStamped(t, dir, "tip.mp4", "second derivation", mid.Manifest.Output.Hash)

	archiveStamped(t, d, root)
	archiveStamped(t, d, mid)

	links, err := Chain(d, tip.Manifest)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("chain length: got %d want 2", len(links))
	}
	if links[0].Manifest.Output.Hash != mid.Manifest.Output.Hash {
		t.Fatalf("first link is not the immediate predecessor")
	}
	if links[1].Manifest.Output.Hash != root.Manifest.Output.Hash {
		t.Fatalf("last link is not the root")
	}
	if links[1].Manifest.Input.Hash != nil {
		t.Fatalf("root link has a non-null input hash")
	}
}

func TestChain_RootManifestIsEmpty(t *testing.T) {
	d := mustOpen(t)
	root := buildStamped(t, t.TempDir(), "root.mp4", "original content", "")

	links, err := Chain(d, root.Manifest)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("root chain: got %d links, want 0", len(links))
	}
}

func TestChain_DanglingLink(t *testing.T) {
	d := mustOpen(t)
	dir := t.TempDir()

	root := buildStamped(t, dir, "root.mp4", "original content", "")
	mid := buildStamped(t, dir, "mid.mp4", "first derivation", root.Manifest.Output.Hash)
	tip := buildStamped(t, dir, "tip.mp4", "second derivation", mid.Manifest.Output.Hash)

	archiveStamped(t, d, mid) // root never archived

	links, err := Chain(d, tip.Manifest)
	if !errors.Is(err, ErrDanglingLink) {
		t.Fatalf("expected ErrDanglingLink, got %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("partial chain: got %d links, want 1", len(links))
	}
}

func TestChain_CycleDetected(t *testing.T) {
	d := mustOpen(t)
	dir := t.TempDir()

	a := buildStamped(t, dir, "a.mp4", "asset a", "")
	b := buildStamped(t, dir, "b.mp4", "asset b", a.Manifest.Output.Hash)

	// Rebuild a so it links back to b, closing the loop.
	a = buildStamped(t, dir, "a.mp4", "asset a", b.Manifest.Output.Hash)

	archiveStamped(t, d, a)
	archiveStamped(t, d, b)

	_, err := Chain(d, a.Manifest)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}
