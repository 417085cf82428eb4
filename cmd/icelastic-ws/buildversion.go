package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// git commit used for this build; supplied at compile time
var gitCommit string

type serviceVersion struct {
	BuildVersion string `json:"build,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
}

func buildVersion() serviceVersion {
	build := "unknown"
	files, _ := filepath.Glob("buildtag.*")
	if len(files) == 1 {
		build = strings.Replace(files[0], "buildtag.", "", 1)
	}

	return serviceVersion{
		BuildVersion: build,
		GoVersion:    fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		GitCommit:    gitCommit,
	}
}

func (v serviceVersion) logVersion() {
	log.Infof("[SERVICE] version.BuildVersion = [%s]", v.BuildVersion)
	log.Infof("[SERVICE] version.GoVersion    = [%s]", v.GoVersion)
	log.Infof("[SERVICE] version.GitCommit    = [%s]", v.GitCommit)
}
