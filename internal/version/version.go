// Package version holds the build-time version variables of aicost.
// Local builds keep the zero values; release builds set them with
// -ldflags "-X github.com/pankaj-dahiya-devops/aicost/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the text printed by aicost version.
func Info() string {
	return fmt.Sprintf(
		"aicost version %s\ncommit: %s\nbuilt: %s\ngo: %s\n",
		Version,
		Commit,
		Date,
		runtime.Version(),
	)
}
