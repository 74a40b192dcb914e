package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
	t.Cleanup(func() { readBuildInfo = prev })
}

func TestGet_Defaults(t *testing.T) {
	withBuildInfo(t, nil, false)

	info := Get()
	if info.Version != Version || info.Commit != Commit || info.BuildTime != BuildTime {
		t.Errorf("Get() = %+v, want ldflags values", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestGet_EmbeddedBuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}, true)

	info := Get()
	if info.Version != "v1.2.3" {
		t.Errorf("Version = %q, want module version", info.Version)
	}
	if info.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want short revision", info.Commit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	prev := Version
	Version = "v9.9.9"
	defer func() { Version = prev }()

	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}}, true)

	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Version = %q, ldflags value should win", got)
	}
}

func TestGet_DevelModule(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	if got := Get().Version; got != "dev" {
		t.Errorf("Version = %q, want dev", got)
	}
}

func TestString(t *testing.T) {
	withBuildInfo(t, nil, false)

	s := String()
	if !strings.HasPrefix(s, Version+" ("+Commit+") built at ") {
		t.Errorf("String() = %q", s)
	}
	if !strings.HasSuffix(s, runtime.Version()) {
		t.Errorf("String() = %q, want Go version suffix", s)
	}
}
