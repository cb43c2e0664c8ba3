package keys

import (
	"crypto/ed25519"
	"testing"
)

func TestDeriveRoleSeed_Deterministic(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "render")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "render")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("role seed derivation is not deterministic")
	}
}

func TestDeriveRoleSeed_DistinctRoles(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "render")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "upscale")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(b) {
		t.Fatalf("distinct roles produced identical seeds")
	}
}

func TestDeriveRoleSeed_Rejects(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	if _, err := DeriveRoleSeed(root[:16], "render"); err == nil {
		t.Fatalf("expected error for short root seed")
	}
	if _, err := DeriveRoleSeed(root, ""); err == nil {
		t.Fatalf("expected error for empty role")
	}
	if _, err := DeriveRoleSeed(root, "bad role"); err == nil {
		t.Fatalf("expected error for invalid role character")
	}
}
