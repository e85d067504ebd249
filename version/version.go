// Package version carries build metadata, set at link time:
//
//	go build -ldflags "-X github.com/jackzampolin/amend/version.GitRelease=v0.1.0 \
//	  -X github.com/jackzampolin/amend/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"

	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

// Info is the build metadata as a value, for structured output.
type Info struct {
	Release    string `json:"release"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date"`
	Go         string `json:"go"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Release:    GitRelease,
		Commit:     GitCommit,
		CommitDate: GitCommitDate,
		Go:         GoInfo,
	}
}
