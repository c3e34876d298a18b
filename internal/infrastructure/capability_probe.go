package infrastructure

import (
	"os/exec"

	"github.com/yourusername/cyberstream-go/internal/domain"
)

// lookPath is swapped in tests
var lookPath = exec.LookPath

// ProbeRemuxer determines once whether a remuxer is available. Absence
// is not an error: the resolver falls back to pre-merged formats.
func ProbeRemuxer(config domain.RemuxConfig) domain.Capability {
	switch config.Mode {
	case domain.RemuxDisabled:
		return domain.Capability{}
	case domain.RemuxEnabled:
		path := config.Binary
		if resolved, err := lookPath(config.Binary); err == nil {
			path = resolved
		}
		return domain.Capability{RemuxAvailable: true, RemuxerPath: path}
	}

	path, err := lookPath(config.Binary)
	if err != nil {
		return domain.Capability{}
	}
	return domain.Capability{RemuxAvailable: true, RemuxerPath: path}
}
