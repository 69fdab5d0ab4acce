package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

// VersionFile is the name of the file holding the application version.
const VersionFile = "version.number"

// MissingVersion is reported when the version file is absent or invalid.
var MissingVersion = semver.MustParse("0.0.0-MISSING")

// ReadVersion parses <dir>/version.number. On any failure it returns
// MissingVersion and a missing-source warning.
func ReadVersion(dir string) (*semver.Version, error) {
	path := filepath.Join(dir, VersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return MissingVersion, configerr.Wrap(configerr.KindMissingSource, "read version", err)
	}
	raw := strings.TrimSpace(string(data))
	v, err := semver.NewVersion(raw)
	if err != nil {
		return MissingVersion, configerr.Wrap(configerr.KindMissingSource, "read version",
			fmt.Errorf("%s: %q: %w", path, raw, err))
	}
	return v, nil
}
