// Package tags maps source-control refs to image tags and drives the
// test-image tag selection ladder.
package tags

import (
	"regexp"
	"strings"
)

var (
	// versionBranchPattern matches release-line branches such as v1.12.x or
	// t3.4.x-feature.
	versionBranchPattern = regexp.MustCompile(`^[vt]\d{1,2}\.\d{1,2}\.x.*`)
	// releaseTagPattern matches final release tags such as v1.12.3.
	releaseTagPattern = regexp.MustCompile(`^[vt]\d{1,2}\.\d{1,2}\.\d{1,2}$`)

	trailingPatch = regexp.MustCompile(`\.[0-9]*$`)
)

// Resolution is the output of resolving a pipeline ref: the artifact tag, the
// paired version branch (if the PR base is a release-line branch) and the
// release classification.
type Resolution struct {
	Tag             string
	PRVersionBranch string
	IsRelease       bool
}

// ShortName returns the last path segment of a ref, e.g.
// refs/heads/v1.12.x -> v1.12.x.
func ShortName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// IsVersionBranch reports whether name denotes a release-line branch.
func IsVersionBranch(name string) bool {
	return versionBranchPattern.MatchString(name)
}

// IsReleaseTag reports whether name is a final release tag.
func IsReleaseTag(name string) bool {
	return releaseTagPattern.MatchString(name)
}

// FloatingTag replaces the trailing numeric patch segment with ".x":
// v1.12.3 -> v1.12.x. Intermediate segments are never touched.
func FloatingTag(tag string) string {
	return trailingPatch.ReplaceAllString(tag, ".x")
}

// Resolve maps (ref, prHeadRef, prBaseRef) to the artifact tag, the paired
// version branch and the release flag. Pure; no I/O.
func Resolve(ref, headRef, baseRef, trunkBranch string) Resolution {
	var res Resolution

	switch {
	case strings.Contains(ref, "refs/pull"):
		res.Tag = ShortName(headRef)
	case ref == "refs/heads/"+trunkBranch:
		res.Tag = "latest"
	default:
		res.Tag = ShortName(ref)
	}

	if baseRef != "" {
		if base := ShortName(baseRef); IsVersionBranch(base) {
			res.PRVersionBranch = base
		}
	}

	res.IsRelease = strings.Contains(ref, "refs/tags/")
	return res
}
