package exporter

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/apamidi800/rank-export/pkg/exporter.Version=...".
var Version = "dev"
