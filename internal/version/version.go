// Package version carries the build version, set with
// -ldflags "-X annostream/internal/version.Version=...".
package version

var Version = "0.3.0"
