package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func mp4Box(tag string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(8+len(payload)))
	copy(out[4:], tag)
	return append(out, payload...)
}

func writeMP4(t *testing.T, dir, name string) string {
	t.Helper()
	var buf []byte
	buf = append(buf, mp4Box("ftyp", []byte("isom\x00\x00\x02\x00"))...)
	buf = append(buf, mp4Box("moov", mp4Box("mvhd", make([]byte, 32)))...)
	buf = append(buf, mp4Box("mdat", []byte(name))...)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_StampVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	asset := writeMP4(t, dir, "clip.mp4")

	code, stdout, stderr := runCLI(t,
		"stamp",
		"--asset", asset,
		"--operation", "ai_generated",
		"--provider-id", "p1",
		"--provider-name", "Provider One",
		"--model-id", "m1",
		"--model-version", "1.0",
		"--seed-hex", testSeedHex,
		"--embed",
	)
	if code != 0 {
		t.Fatalf("stamp exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Manifest-CID: ") {
		t.Fatalf("stamp output missing CID:\n%s", stdout)
	}

	code, stdout, _ = runCLI(t, "verify", asset)
	if code != 0 {
		t.Fatalf("verify exit %d:\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "VALID") {
		t.Fatalf("verify output: %s", stdout)
	}

	code, stdout, _ = runCLI(t, "extract", asset)
	if code != 0 {
		t.Fatalf("extract exit %d", code)
	}
	if !strings.Contains(stdout, `"claims":["ai_generated"]`) {
		t.Fatalf("extract output: %s", stdout)
	}

	code, stdout, _ = runCLI(t, "inspect", "--asset", asset)
	if code != 0 {
		t.Fatalf("inspect exit %d", code)
	}
	if !strings.Contains(stdout, "Provider: Provider One (p1)") {
		t.Fatalf("inspect output: %s", stdout)
	}
}

func TestRun_VerifyExitCodes(t *testing.T) {
	dir := t.TempDir()

	// INCONCLUSIVE: asset exists, no evidence.
	bare := writeMP4(t, dir, "bare.mp4")
	if code, _, _ := runCLI(t, "verify", bare); code != 2 {
		t.Fatalf("no-evidence exit: got %d want 2", code)
	}

	// INCONCLUSIVE: asset missing.
	if code, _, _ := runCLI(t, "verify", filepath.Join(dir, "missing.mp4")); code != 2 {
		t.Fatalf("missing-asset exit: got %d want 2", code)
	}

	// INVALID: stamped then tampered.
	tampered := writeMP4(t, dir, "tampered.mp4")
	code, _, stderr := runCLI(t,
		"stamp",
		"--asset", tampered,
		"--operation", "ai_generated",
		"--provider-id", "p1",
		"--provider-name", "Provider One",
		"--seed-hex", testSeedHex,
	)
	if code != 0 {
		t.Fatalf("stamp exit %d: %s", code, stderr)
	}
	f, err := os.OpenFile(tampered, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open asset: %v", err)
	}
	if _, err := f.Write([]byte{0x00}); err != nil {
		t.Fatalf("append byte: %v", err)
	}
	_ = f.Close()
	if code, stdout, _ := runCLI(t, "verify", tampered); code != 1 {
		t.Fatalf("tampered exit: got %d want 1\n%s", code, stdout)
	}
}

func TestRun_KeyStoreFlow(t *testing.T) {
	keyDir := filepath.Join(t.TempDir(), "keys")

	code, stdout, stderr := runCLI(t, "key", "init", "--name", "studio", "--seed-hex", testSeedHex, "--dir", keyDir)
	if code != 0 {
		t.Fatalf("key init exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Created root key: ed25519:") {
		t.Fatalf("key init output: %s", stdout)
	}

	code, _, stderr = runCLI(t, "key", "derive", "--from", "studio", "--role", "pipeline", "--dir", keyDir)
	if code != 0 {
		t.Fatalf("key derive exit %d: %s", code, stderr)
	}

	code, stdout, _ = runCLI(t, "key", "list", "--dir", keyDir)
	if code != 0 {
		t.Fatalf("key list exit %d", code)
	}
	if !strings.Contains(stdout, "studio") || !strings.Contains(stdout, "pipeline") {
		t.Fatalf("key list output: %s", stdout)
	}

	code, stdout, _ = runCLI(t, "key", "export", "--name", "studio", "--role", "pipeline", "--dir", keyDir)
	if code != 0 {
		t.Fatalf("key export exit %d", code)
	}
	if !strings.HasPrefix(stdout, "ed25519:") {
		t.Fatalf("key export output: %s", stdout)
	}

	// A stored key signs a stamp.
	asset := writeMP4(t, t.TempDir(), "clip.mp4")
	code, _, stderr = runCLI(t,
		"stamp",
		"--asset", asset,
		"--operation", "ai_generated",
		"--provider-id", "p1",
		"--provider-name", "Provider One",
		"--signer", "studio",
		"--signer-role", "pipeline",
		"--key-dir", keyDir,
	)
	if code != 0 {
		t.Fatalf("stamp with stored key exit %d: %s", code, stderr)
	}
	if code, _, _ := runCLI(t, "verify", asset); code != 0 {
		t.Fatalf("verify after stored-key stamp failed")
	}
}

func TestRun_ChainCommand(t *testing.T) {
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")

	root := writeMP4(t, dir, "root.mp4")
	code, _, stderr := runCLI(t,
		"stamp",
		"--asset", root,
		"--operation", "ai_generated",
		"--provider-id", "p1",
		"--provider-name", "Provider One",
		"--seed-hex", testSeedHex,
		"--archive-dir", archiveDir,
	)
	if code != 0 {
		t.Fatalf("stamp root exit %d: %s", code, stderr)
	}

	rootManifest, err := os.ReadFile(filepath.Join(dir, "root.prov.json"))
	if err != nil {
		t.Fatalf("read root sidecar: %v", err)
	}
	outputHash := extractField(t, string(rootManifest), `"output":{"hash":"`)

	derived := writeMP4(t, dir, "derived.mp4")
	code, _, stderr = runCLI(t,
		"stamp",
		"--asset", derived,
		"--operation", "ai_transformed",
		"--provider-id", "p1",
		"--provider-name", "Provider One",
		"--input-hash", outputHash,
		"--seed-hex", testSeedHex,
		"--archive-dir", archiveDir,
	)
	if code != 0 {
		t.Fatalf("stamp derived exit %d: %s", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "chain", "--asset", derived, "--archive-dir", archiveDir)
	if code != 0 {
		t.Fatalf("chain exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Chain: 1 link(s) to root") {
		t.Fatalf("chain output: %s", stdout)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no-args exit: got %d want 2", code)
	}
	if code, _, _ := runCLI(t, "bogus"); code != 2 {
		t.Fatalf("unknown-command exit: got %d want 2", code)
	}
	if code, _, _ := runCLI(t, "stamp"); code != 2 {
		t.Fatalf("stamp without flags exit: got %d want 2", code)
	}
	if code, _, _ := runCLI(t, "verify"); code != 2 {
		t.Fatalf("verify without asset exit: got %d want 2", code)
	}
}

// extractField pulls the value following prefix out of a JSON string, up to
// the closing quote.
func extractField(t *testing.T, s, prefix string) string {
	t.Helper()
	i := strings.Index(s, prefix)
	if i < 0 {
		t.Fatalf("field %q not found in %s", prefix, s)
	}
	rest := s[i+len(prefix):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		t.Fatalf("unterminated field in %s", s)
	}
	return rest[:j]
}
