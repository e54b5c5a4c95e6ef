// Package imageref validates Docker image references of the form
// [HOST[:PORT]/]PATH[:TAG].
package imageref

import "regexp"

// Grammar pieces. A path is one or more lowercase components joined by
// "/", where each component is alphanumeric runs joined by a single ".",
// one or two "_", or any number of "-". The registry host prefix and the
// tag are both optional; only the tag may contain uppercase letters.
const (
	hostPort  = `(?:[a-z0-9.-]+(?::[0-9]+)?/)?`
	separator = `(?:\.|_{1,2}|-+)`
	component = `[a-z0-9]+(?:` + separator + `[a-z0-9]+)*`
	tag       = `(?::[a-zA-Z0-9_.-]+)?`
)

var refRe = regexp.MustCompile(`^` + hostPort + component + `(?:/` + component + `)*` + tag + `$`)

// Valid reports whether name is a well-formed image reference.
func Valid(name string) bool {
	return refRe.MatchString(name)
}
