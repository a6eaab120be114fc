// Package release computes release candidate versions and applies them to a
// repository: the manifest's version line, a commit and a tag.
package release

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	goversion "github.com/hashicorp/go-version"
)

var (
	// ErrInvalidVersion is returned for a base version not in vX.Y.Z form.
	ErrInvalidVersion = errors.New("invalid version, expected vX.X.X (e.g., v2.0.0)")

	// ErrRCOverflow is returned when the release candidate counter can't be
	// incremented.
	ErrRCOverflow = errors.New("release candidate counter out of range")
)

var (
	rcTagRE   = regexp.MustCompile(`^v(\d+\.\d+\.\d+)-rc\.(\d+)$`)
	baseTagRE = regexp.MustCompile(`^v(\d+\.\d+\.\d+)$`)
)

// RCVersion is a release candidate: a base version and a counter.
type RCVersion struct {
	Base string // X.Y.Z, without the leading v
	RC   int
}

// ParseRCVersion parses a tag of the form vX.Y.Z-rc.N. ok is false for any
// other tag.
func ParseRCVersion(tag string) (v RCVersion, ok bool) {
	m := rcTagRE.FindStringSubmatch(tag)
	if m == nil {
		return RCVersion{}, false
	}
	rc, err := strconv.Atoi(m[2])
	if err != nil {
		// Only reachable for counters that overflow an int.
		return RCVersion{}, false
	}
	return RCVersion{Base: m[1], RC: rc}, true
}

// ParseBase validates a vX.Y.Z version and returns it without the v.
func ParseBase(s string) (string, error) {
	m := baseTagRE.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidVersion)
	}
	return m[1], nil
}

// FirstRC returns the first release candidate of base.
func FirstRC(base string) RCVersion {
	return RCVersion{Base: base}
}

// Next returns the following release candidate of the same base version.
func (v RCVersion) Next() (RCVersion, error) {
	if v.RC < 0 || v.RC == math.MaxInt {
		return RCVersion{}, fmt.Errorf("%s: %w", v, ErrRCOverflow)
	}
	return RCVersion{Base: v.Base, RC: v.RC + 1}, nil
}

// Version is the manifest form, X.Y.Z-rc.N.
func (v RCVersion) Version() string {
	return fmt.Sprintf("%s-rc.%d", v.Base, v.RC)
}

// Tag is the git tag form, vX.Y.Z-rc.N.
func (v RCVersion) Tag() string {
	return "v" + v.Version()
}

func (v RCVersion) String() string {
	return v.Tag()
}

// IsNewer reports whether base is a later version than the one in tag. Any
// valid base is newer than a tag that isn't a version at all.
func IsNewer(base, tag string) bool {
	b, err := goversion.NewVersion(base)
	if err != nil {
		return false
	}
	t, err := goversion.NewVersion(tag)
	if err != nil {
		return true
	}
	return b.GreaterThan(t)
}
