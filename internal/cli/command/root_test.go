package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/infra/buildinfo"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
)

// runApp runs the CLI with args and returns stdout and stderr.
func runApp(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	prev := logger.Default()
	t.Cleanup(func() {
		logger.SetDefault(prev)
		logger.SetLevel("info")
	})

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.RunContext(ctx, append([]string{"cryptogen"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "cryptogen" {
		t.Errorf("Name = %q, want cryptogen", app.Name)
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"get", "bench", "run", "pool", "config", "version"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"config", "output", "wide", "server", "tls-ca", "log-level", "log-format"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestApp_RejectsUnknownOutput(t *testing.T) {
	_, _, err := runApp(t, context.Background(), "-o", "xml", "version")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestGlobalFlags_Overrides(t *testing.T) {
	f := &GlobalFlags{LogLevel: "debug"}
	got := f.overrides()
	if got["log.level"] != "debug" || len(got) != 1 {
		t.Errorf("overrides() = %v", got)
	}
	if len((&GlobalFlags{}).overrides()) != 0 {
		t.Error("unset flags should not override configuration")
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runApp(t, context.Background(), "-o", "json", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}

	var info buildinfo.Info
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if info.Version == "" || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
}

func TestVersionCommand_Table(t *testing.T) {
	stdout, _, err := runApp(t, context.Background(), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(stdout, "go_version") {
		t.Errorf("table output %q should list fields", stdout)
	}
}
