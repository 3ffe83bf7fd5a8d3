package walkfile

import (
	"fmt"
	"os"

	"github.com/nimbuscomm/snmpdevsim/internal/profile"
)

// ParseFile reads and parses a walk file from disk.
func ParseFile(path string) ([]profile.WalkTriple, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("walkfile: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}
