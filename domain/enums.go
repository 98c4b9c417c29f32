package domain

// Action is a mutation the reconciler performs against the target.
type Action string

const (
	// ActionUpload writes a source file under the identical key.
	ActionUpload Action = "upload"

	// ActionDelete removes a key that no longer exists in the source.
	ActionDelete Action = "delete"
)

// SourceMode selects how the source tree is read.
type SourceMode string

const (
	// SourceModeAPI lists the tree through the hosting service's REST API
	// and fetches content from its raw endpoint.
	SourceModeAPI SourceMode = "api"

	// SourceModeClone performs a shallow in-memory clone and reads blobs directly.
	SourceModeClone SourceMode = "clone"
)

// Valid reports whether m is a known source mode.
func (m SourceMode) Valid() bool {
	switch m {
	case SourceModeAPI, SourceModeClone:
		return true
	default:
		return false
	}
}
