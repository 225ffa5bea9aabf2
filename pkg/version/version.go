package version

// Version is set at build time with -ldflags "-X github.com/cloudposse/confmerge/pkg/version.Version=...".
var Version = "dev"
