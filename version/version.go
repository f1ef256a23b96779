package version

import (
	"fmt"
	"strings"
	"sync"
)

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// buildCharset lists the characters allowed in build metadata.
const buildCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// appBuild is set at link time, e.g.
// -ldflags "-X github.com/sedlynet/sedlyd/version.appBuild=nightly".
var appBuild string

var (
	versionOnce sync.Once
	version     string
)

// Version returns the sedlyd version as major.minor.patch, followed by
// -<build> when valid build metadata was linked in.
func Version() string {
	versionOnce.Do(func() {
		version = format(appMajor, appMinor, appPatch, appBuild)
	})
	return version
}

func format(major, minor, patch uint, build string) string {
	semver := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if build == "" || !isValidBuild(build) {
		return semver
	}
	return semver + "-" + build
}

// isValidBuild reports whether build uses only buildCharset. Invalid
// metadata is dropped rather than printed.
func isValidBuild(build string) bool {
	return strings.Trim(build, buildCharset) == ""
}
