package domain

// Fingerprint is a content-identity tuple for a source file, computed
// fresh from the live file on every run and discarded afterwards.
//
// The content hash is the authoritative change signal; size and mtime
// are cheap pre-filters kept for display and as an extra integrity check.
type Fingerprint struct {
	// Path is the absolute path the fingerprint was taken from.
	Path string `json:"path"`

	// SizeBytes is the file size at fingerprint time.
	SizeBytes int64 `json:"size"`

	// MTimeMillis is the file modification time in Unix milliseconds.
	MTimeMillis int64 `json:"mtimeMs"`

	// ContentHash is the hex-encoded SHA-256 digest of the file content.
	ContentHash string `json:"contentHash"`
}

// Equal reports whether two fingerprints match. All three of size,
// modification time and content hash must agree.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.SizeBytes == other.SizeBytes &&
		f.MTimeMillis == other.MTimeMillis &&
		f.ContentHash == other.ContentHash
}
