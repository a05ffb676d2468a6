package logger

import (
	"context"
	"runtime/debug"
)

// BuildInfo logs the module and VCS settings embedded in the binary.
func (log *Logger) BuildInfo(ctx context.Context) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	args := []any{"go", info.GoVersion, "path", info.Path}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.time", "vcs.modified", "GOOS", "GOARCH":
			args = append(args, s.Key, s.Value)
		}
	}

	log.Info(ctx, "build info", args...)
}
