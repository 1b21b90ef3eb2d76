// Package version holds build information set through ldflags.
package version

// Version is overwritten at build time with -ldflags "-X github.com/jon4hz/subgen/version.Version=...".
var Version = "dev"
