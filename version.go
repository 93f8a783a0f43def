package strata

// Version is the release version surfaced by the version command and
// the protocol adapters. Release tooling overrides it at link time with
// -ldflags "-X github.com/lanreath/strata.Version=...".
var Version = "0.3.0"
