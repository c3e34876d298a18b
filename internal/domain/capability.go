package domain

// Capability describes host tooling detected once at startup.
// It is passed by value and never re-probed.
type Capability struct {
	RemuxAvailable bool   `json:"remux_available"`
	RemuxerPath    string `json:"remuxer_path,omitempty"`
}

// RemuxMode controls how the remuxer capability is determined
type RemuxMode string

const (
	RemuxAuto     RemuxMode = "auto"
	RemuxEnabled  RemuxMode = "enabled"
	RemuxDisabled RemuxMode = "disabled"
)

// ValidateRemuxMode checks if a remux mode is valid
func ValidateRemuxMode(mode RemuxMode) bool {
	return mode == RemuxAuto || mode == RemuxEnabled || mode == RemuxDisabled
}
