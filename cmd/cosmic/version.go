package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var releaseVersion string

// VersionCmd prints the CLI build: its release, the commit it was built
// from and the Go toolchain.
type VersionCmd struct {
	JSON bool `help:"Print the build as a JSON object."`
}

func (c *VersionCmd) Run() error {
	b := currentBuild()
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	fmt.Println(b.String())
	return nil
}

type build struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

func currentBuild() build {
	info, _ := debug.ReadBuildInfo()
	return buildFrom(strings.TrimSpace(releaseVersion), info)
}

// buildFrom prefers the module version stamped by `go install pkg@vX`;
// source builds report the embedded release marked as devel.
func buildFrom(release string, info *debug.BuildInfo) build {
	b := build{Version: release}
	if info == nil {
		return b
	}
	b.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.Version = v
		return b
	}
	b.Version = "devel-" + release
	return b
}

func (b build) String() string {
	var sb strings.Builder
	sb.WriteString("cosmic " + b.Version)
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		sb.WriteString(" (" + rev)
		if b.Dirty {
			sb.WriteString(", modified")
		}
		sb.WriteString(")")
	}
	if b.GoVersion != "" {
		sb.WriteString(" " + b.GoVersion)
	}
	return sb.String()
}
