package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// CheckConfigCompatibility reports whether a configuration file written for
// configVersion can be read by binaryVersion.
//
//   - An empty configVersion or a "main" build on either side skips the check
//   - Major versions must match
//   - The file must not come from a newer minor release, which may carry
//     settings this binary ignores
//
// Examples:
//   - binary 1.4.2, config 1.4.0 -> OK
//   - binary 1.4.0, config 1.2.7 -> OK (older file)
//   - binary 1.2.0, config 1.3.0 -> ERROR (newer file)
//   - binary 2.0.0, config 1.9.0 -> ERROR (major differs)
func CheckConfigCompatibility(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binary, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid binary version %q", binaryVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version %q", configVersion)
	}

	if binary.Major() != config.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: binary is %d.x.x but config was written for %d.x.x",
			binary.Major(), config.Major())
	}

	if config.Minor() > binary.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"config was written for %d.%d.x, newer than this binary (%d.%d.x)",
			config.Major(), config.Minor(), binary.Major(), binary.Minor())
	}

	return nil
}
