package version

// Value is overridden at release time via -ldflags "-X clonewatch/internal/version.Value=v1.2.3".
var Value = "dev"
