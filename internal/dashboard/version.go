package dashboard

import (
	"github.com/Masterminds/semver/v3"
)

// Version is the current version of the dashboard API.
const Version = "0.1.0"

// versionConstraint defines the compatible client version range.
var versionConstraint *semver.Constraints

func init() {
	var err error
	versionConstraint, err = semver.NewConstraint("=" + Version)
	if err != nil {
		panic(err)
	}
}

// IsVersionCompatible reports whether the given client version is compatible
// with this server. Returns false for invalid version strings.
func IsVersionCompatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return versionConstraint.Check(v)
}
