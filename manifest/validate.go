package manifest

import "time"

// Validate checks the manifest field set against the v1 schema rules.
func Validate(m *Manifest) error {
	if m == nil {
		return newError(KindValidation, "TRACE-MAN-100", "nil manifest")
	}
	if m.SpecVersion == "" {
		return newError(KindValidation, "TRACE-MAN-101", "missing spec_version")
	}
	if m.MediaProfile != MediaProfileVideo {
		return newError(KindValidation, "TRACE-MAN-102", "unsupported media_profile")
	}
	if m.Provider.ID == "" {
		return newError(KindValidation, "TRACE-MAN-103", "missing provider.id")
	}
	if m.Provider.Name == "" {
		return newError(KindValidation, "TRACE-MAN-104", "missing provider.name")
	}
	if m.Provider.PublicKey == "" {
		return newError(KindValidation, "TRACE-MAN-105", "missing provider.public_key")
	}
	switch m.Operation {
	case OpAIGenerated, OpAITransformed:
	default:
		return newError(KindValidation, "TRACE-MAN-106", "unknown operation")
	}
	if m.Model.ID == "" {
		return newError(KindValidation, "TRACE-MAN-107", "missing model.id")
	}
	if m.Timestamps.CreatedUTC == "" {
		return newError(KindValidation, "TRACE-MAN-108", "missing timestamps.created_utc")
	}
	if _, err := time.Parse(time.RFC3339, m.Timestamps.CreatedUTC); err != nil {
		return wrapError(KindValidation, "TRACE-MAN-109", "timestamps.created_utc is not RFC3339", err)
	}
	if m.Input.Hash != nil {
		if err := ValidateHash(*m.Input.Hash); err != nil {
			return err
		}
	}
	if m.Output.Hash == "" {
		return newError(KindValidation, "TRACE-MAN-110", "missing output.hash")
	}
	if err := ValidateHash(m.Output.Hash); err != nil {
		return err
	}
	switch m.Output.MediaType {
	case MediaTypeMP4, MediaTypeWebM:
	default:
		return newError(KindValidation, "TRACE-MAN-111", "unrecognized output.media_type")
	}
	if len(m.Claims) != 1 || m.Claims[0] != string(m.Operation) {
		return newError(KindValidation, "TRACE-MAN-112", "claims must match operation")
	}
	if m.Nonce == "" {
		return newError(KindValidation, "TRACE-MAN-113", "missing nonce")
	}
	return nil
}
