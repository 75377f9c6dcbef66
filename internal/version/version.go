package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/weddingday/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// Banner is the one-line build description logged at startup.
func Banner() string {
	return fmt.Sprintf("weddingday %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
