// Package version exposes build metadata stamped in via ldflags:
//
//	go build -ldflags "-X github.com/courseloop/courseloop-api/internal/version.Version=1.0.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic release version.
	Version = "0.0.0-dev"

	// Commit is the git commit SHA of the build.
	Commit = "unknown"

	// Date is the build timestamp in RFC3339 format.
	Date = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build info for the current binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s) built %s", i.Version, i.Commit, i.Date)
}
