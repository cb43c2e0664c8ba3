package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/traceprov/archive"
	"xdao.co/traceprov/attach"
	"xdao.co/traceprov/keys"
	"xdao.co/traceprov/manifest"
	"xdao.co/traceprov/verify"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "stamp":
		return cmdStamp(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "extract":
		return cmdExtract(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "chain":
		return cmdChain(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "traceprov: media provenance stamping and verification")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  traceprov stamp --asset <file> --operation ai_generated|ai_transformed --provider-id <id> --provider-name <name> [--model-id <id>] [--model-version <v>] [--input-hash sha256:<hex>] (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [--embed] [--archive-dir <dir>]")
	fmt.Fprintln(w, "  traceprov verify <asset>")
	fmt.Fprintln(w, "  traceprov extract <asset>")
	fmt.Fprintln(w, "  traceprov inspect (<manifest.json> | --asset <file>)")
	fmt.Fprintln(w, "  traceprov chain --asset <file> --archive-dir <dir>")
	fmt.Fprintln(w, "  traceprov key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  traceprov key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  traceprov key list")
	fmt.Fprintln(w, "  traceprov key export --name <name> [--role <role>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.traceprov/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - stamp always writes <stem>.prov.json and <stem>.prov.sig next to the asset")
	fmt.Fprintln(w, "  - --embed additionally stores the evidence inside the container (MP4 box or WebM marker)")
	fmt.Fprintln(w, "  - verify exit codes: 0 VALID, 1 INVALID, 2 INCONCLUSIVE")
}

func cmdStamp(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("stamp", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var (
		assetPath    string
		operation    string
		providerID   string
		providerName string
		modelID      string
		modelVersion string
		inputHash    string
		seedHex      string
		signer       string
		signerRole   string
		keyFile      string
		keyDir       string
		embed        bool
		archiveDir   string
	)
	fs.StringVar(&assetPath, "asset", "", "Asset file to stamp")
	fs.StringVar(&operation, "operation", "", "Provenance operation: ai_generated or ai_transformed")
	fs.StringVar(&providerID, "provider-id", "", "Provider identifier")
	fs.StringVar(&providerName, "provider-name", "", "Provider display name")
	fs.StringVar(&modelID, "model-id", "", "Model identifier")
	fs.StringVar(&modelVersion, "model-version", "", "Model version")
	fs.StringVar(&inputHash, "input-hash", "", "Source asset hash (sha256:<hex>) for ai_transformed")
	fs.StringVar(&seedHex, "seed-hex", "", "Inline ed25519 seed as 64 hex chars")
	fs.StringVar(&signer, "signer", "", "Named key from the key store")
	fs.StringVar(&signerRole, "signer-role", "", "Role subkey of --signer")
	fs.StringVar(&keyFile, "key-file", "", "PEM private key file")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.traceprov/keys)")
	fs.BoolVar(&embed, "embed", false, "Also embed the evidence inside the container")
	fs.StringVar(&archiveDir, "archive-dir", "", "Archive the canonical manifest under this directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if assetPath == "" {
		fmt.Fprintln(errOut, "missing --asset")
		return 2
	}
	if operation == "" {
		fmt.Fprintln(errOut, "missing --operation")
		return 2
	}

	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	priv, err := ks.LoadSigner(seedHex, signer, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load signer: %v\n", err)
		return 2
	}

	stamped, err := manifest.Build(manifest.BuildParams{
		AssetPath: assetPath,
		Operation: manifest.Operation(operation),
		Provider:  manifest.Provider{ID: providerID, Name: providerName},
		Model:     manifest.Model{ID: modelID, Version: modelVersion},
		InputHash: inputHash,
		HashAsset: attach.ContentHash,
	}, priv)
	if err != nil {
		fmt.Fprintf(errOut, "build manifest: %v\n", err)
		return 1
	}
	for _, w := range stamped.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w)
	}

	if err := attach.Stamp(assetPath, stamped.Canonical, stamped.Signature, embed); err != nil {
		fmt.Fprintf(errOut, "attach: %v\n", err)
		return 1
	}

	if archiveDir != "" {
		a, err := archive.Open(archiveDir)
		if err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
		if _, err := a.Put(stamped.Canonical); err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
	}

	id, err := stamped.Manifest.CID()
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	manifestPath, signaturePath := attach.SidecarPaths(assetPath)
	fmt.Fprintf(out, "Manifest-CID: %s\n", id)
	fmt.Fprintf(out, "Sidecar: %s\n", manifestPath)
	fmt.Fprintf(out, "Sidecar: %s\n", signaturePath)
	if embed {
		fmt.Fprintf(out, "Embedded: %s\n", attach.ForPath(assetPath).Name())
	}
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: traceprov verify <asset>")
		return 2
	}

	outcome := verify.Asset(fs.Arg(0))
	fmt.Fprintf(out, "%s: %s\n", outcome.Status, outcome.Reason)
	if outcome.Source != "" {
		fmt.Fprintf(out, "Source: %s\n", outcome.Source)
	}

	switch outcome.Status {
	case verify.StatusValid:
		return 0
	case verify.StatusInvalid:
		return 1
	default:
		return 2
	}
}

func cmdExtract(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: traceprov extract <asset>")
		return 2
	}
	assetPath := fs.Arg(0)

	asset, err := os.ReadFile(assetPath)
	if err != nil {
		fmt.Fprintf(errOut, "read asset: %v\n", err)
		return 1
	}
	ev, err := attach.Resolve(assetPath, asset)
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "Source: %s\n", ev.Source)
	fmt.Fprintf(errOut, "Signature: %s\n", ev.Signature)
	_, _ = out.Write(ev.Canonical)
	_, _ = fmt.Fprintln(out)
	return 0
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var assetPath string
	fs.StringVar(&assetPath, "asset", "", "Resolve the manifest from this asset instead of a manifest file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var raw []byte
	switch {
	case assetPath != "":
		asset, err := os.ReadFile(assetPath)
		if err != nil {
			fmt.Fprintf(errOut, "read asset: %v\n", err)
			return 1
		}
		ev, err := attach.Resolve(assetPath, asset)
		if err != nil {
			fmt.Fprintf(errOut, "resolve: %v\n", err)
			return 1
		}
		raw = ev.Canonical
	case fs.NArg() == 1:
		var err error
		raw, err = os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read manifest: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintln(errOut, "usage: traceprov inspect (<manifest.json> | --asset <file>)")
		return 2
	}

	m, err := manifest.Parse(raw)
	if err != nil {
		fmt.Fprintf(errOut, "parse manifest: %v\n", err)
		return 1
	}
	id, err := m.CID()
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "Manifest-CID: %s\n", id)
	fmt.Fprintf(out, "Spec-Version: %s\n", m.SpecVersion)
	fmt.Fprintf(out, "Operation: %s\n", m.Operation)
	fmt.Fprintf(out, "Provider: %s (%s)\n", m.Provider.Name, m.Provider.ID)
	fmt.Fprintf(out, "Provider-Key: %s\n", m.Provider.PublicKey)
	fmt.Fprintf(out, "Model: %s %s\n", m.Model.ID, m.Model.Version)
	fmt.Fprintf(out, "Created: %s\n", m.Timestamps.CreatedUTC)
	if m.Input.Hash != nil {
		fmt.Fprintf(out, "Input-Hash: %s\n", *m.Input.Hash)
	} else {
		fmt.Fprintln(out, "Input-Hash: (none)")
	}
	fmt.Fprintf(out, "Output-Hash: %s\n", m.Output.Hash)
	fmt.Fprintf(out, "Media-Type: %s\n", m.Output.MediaType)
	return 0
}

func cmdChain(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var assetPath string
	var archiveDir string
	fs.StringVar(&assetPath, "asset", "", "Asset whose custody chain to walk")
	fs.StringVar(&archiveDir, "archive-dir", "", "Manifest archive directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if assetPath == "" || archiveDir == "" {
		fmt.Fprintln(errOut, "usage: traceprov chain --asset <file> --archive-dir <dir>")
		return 2
	}

	asset, err := os.ReadFile(assetPath)
	if err != nil {
		fmt.Fprintf(errOut, "read asset: %v\n", err)
		return 1
	}
	ev, err := attach.Resolve(assetPath, asset)
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	m, err := manifest.Parse(ev.Canonical)
	if err != nil {
		fmt.Fprintf(errOut, "parse manifest: %v\n", err)
		return 1
	}

	a, err := archive.Open(archiveDir)
	if err != nil {
		fmt.Fprintf(errOut, "archive: %v\n", err)
		return 1
	}
	links, werr := archive.Chain(a, m)

	fmt.Fprintf(out, "Asset: %s (%s)\n", assetPath, m.Output.Hash)
	for i, link := range links {
		fmt.Fprintf(out, "%d: %s %s (%s)\n", i+1, link.CID, link.Manifest.Operation, link.Manifest.Output.Hash)
	}
	if werr != nil {
		fmt.Fprintf(errOut, "chain incomplete: %v\n", werr)
		return 1
	}
	fmt.Fprintf(out, "Chain: %d link(s) to root\n", len(links))
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "traceprov key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  traceprov key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  traceprov key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  traceprov key list")
	fmt.Fprintln(w, "  traceprov key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var keyDir string
	var force bool
	fs.StringVar(&name, "name", "", "Key name (directory under ~/.traceprov/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.StringVar(&keyDir, "dir", "", "Key store directory (default ~/.traceprov/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	providerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", providerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var keyDir string
	var force bool
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. studio, pipeline)")
	fs.StringVar(&keyDir, "dir", "", "Key store directory (default ~/.traceprov/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	providerKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", providerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyDir string
	fs.StringVar(&keyDir, "dir", "", "Key store directory (default ~/.traceprov/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Permissions {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string
	var keyDir string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports the derived role key)")
	fs.StringVar(&keyDir, "dir", "", "Key store directory (default ~/.traceprov/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	providerKey, err := ks.ExportProviderKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, providerKey)
	return 0
}
