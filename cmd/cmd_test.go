package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/shell/shelltest"
	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \r\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			got := confirm(strings.NewReader(tt.input), &out, "Continue?")
			if got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Continue?") {
				t.Errorf("question not written: %q", out.String())
			}
		})
	}
}

func TestRenderBatch(t *testing.T) {
	const gb = int64(1) << 30
	failure := errors.Join(compact.ErrAllStrategiesExhausted, errors.New("modern unsupported, diskpart failed"))
	batch := &compact.BatchReport{
		RunID: "01TESTRUN",
		Reports: []*compact.Report{
			{
				Target:      "Ubuntu",
				PreSize:     10 * gb,
				PostSize:    4 * gb,
				Measurement: compact.Measure(10*gb, 4*gb),
				Strategy:    compact.StrategyDiskpart,
				Outcome:     compact.OutcomeSuccess,
			},
			{
				Target:  "Debian",
				Outcome: compact.OutcomeFailed,
				Err:     failure,
				Attempts: []compact.CompactionAttempt{
					{Strategy: compact.StrategyModern, Outcome: compact.OutcomeUnsupported, Reason: "wsl too old"},
					{Strategy: compact.StrategyDiskpart, Outcome: compact.OutcomeFailed, Reason: "file in use"},
				},
			},
		},
		Skipped: []vhdx.VirtualDiskFile{{Path: `D:\stray\ext4.vhdx`}},
		Summary: compact.Summary{Succeeded: 1, Failed: 1, Skipped: 1},
	}

	var out bytes.Buffer
	renderBatch(ui.NewPrinter(&out), batch)
	got := out.String()

	for _, want := range []string{
		"Ubuntu",
		"6.0 GiB",
		"60.0%",
		"diskpart",
		"Debian",
		"wsl too old",
		"file in use",
		`D:\stray\ext4.vhdx`,
		"01TESTRUN",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderDisksMarksOrphans(t *testing.T) {
	var out bytes.Buffer
	renderDisks(&out, []vhdx.VirtualDiskFile{
		{Path: `C:\wsl\Ubuntu\ext4.vhdx`, Owner: "Ubuntu", Size: 2 << 30},
		{Path: `D:\old\ext4.vhdx`, Size: 1 << 30},
	})
	got := out.String()
	if !strings.Contains(got, "(orphan)") {
		t.Errorf("orphan not marked:\n%s", got)
	}
	if !strings.Contains(got, "2 file(s), 3.0 GiB total") {
		t.Errorf("unexpected total:\n%s", got)
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewAppUsesFixedFallbackOrder(t *testing.T) {
	a, err := newApp(config.DefaultConfig(), quietLogger(), shelltest.New())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	var got []compact.StrategyID
	for _, s := range a.engine.Strategies() {
		got = append(got, s.ID())
	}
	if diff := cmp.Diff(compact.StrategyIDs, got); diff != "" {
		t.Fatalf("strategy order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompactQuestionResolvesTarget(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Ubuntu")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, config.DiskFileName)
	if err := os.WriteFile(path, []byte("disk"), 0644); err != nil {
		t.Fatal(err)
	}
	a := &app{locator: vhdx.NewLocator(vhdx.Options{
		Registry: vhdx.StaticRegistry{{DistributionName: "Ubuntu", BasePath: dir}},
		Logger:   quietLogger(),
	})}

	q, err := a.compactQuestion(context.Background(), "ubuntu")
	if err != nil {
		t.Fatalf("compactQuestion: %v", err)
	}
	if !strings.Contains(q, "Ubuntu") || !strings.Contains(q, path) {
		t.Errorf("question should name the distribution and disk: %q", q)
	}

	if _, err := a.compactQuestion(context.Background(), "Debian"); !errors.Is(err, vhdx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any prompt, got %v", err)
	}
	if q, err := a.compactQuestion(context.Background(), "ALL"); err != nil || !strings.Contains(q, "every distribution") {
		t.Fatalf("all: %q, %v", q, err)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wslmole", "config.yaml")
	var out bytes.Buffer

	if err := writeDefaultConfig(&out, path, false); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
		t.Errorf("written config mismatch (-want +got):\n%s", diff)
	}

	if err := writeDefaultConfig(&out, path, false); err == nil {
		t.Fatal("expected an error when the file exists")
	}
	if err := writeDefaultConfig(&out, path, true); err != nil {
		t.Fatalf("--force: %v", err)
	}
}

type recordingStrategy struct {
	id       compact.StrategyID
	attempts *[]compact.StrategyID
}

func (s recordingStrategy) ID() compact.StrategyID { return s.id }

func (s recordingStrategy) CheckSupported(context.Context, vhdx.VirtualDiskFile) error { return nil }

func (s recordingStrategy) Attempt(context.Context, vhdx.VirtualDiskFile) error {
	*s.attempts = append(*s.attempts, s.id)
	return nil
}

type noShutdown struct{}

func (noShutdown) ShutdownAll(context.Context) error { return nil }

func TestMenuOffersEachStrategyOnItsOwn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Ubuntu")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.DiskFileName), []byte("disk"), 0644); err != nil {
		t.Fatal(err)
	}
	locator := vhdx.NewLocator(vhdx.Options{
		Registry: vhdx.StaticRegistry{{DistributionName: "Ubuntu", BasePath: dir}},
		Logger:   quietLogger(),
	})

	var attempts []compact.StrategyID
	var strategies []compact.Strategy
	for _, id := range compact.StrategyIDs {
		strategies = append(strategies, recordingStrategy{id: id, attempts: &attempts})
	}
	a := &app{
		locator: locator,
		engine: compact.NewEngine(compact.Options{
			WSL:        noShutdown{},
			Locator:    locator,
			Strategies: strategies,
			Elevated:   func() bool { return true },
			Logger:     quietLogger(),
		}),
	}

	titles := map[string]compact.StrategyID{
		"Compact with wsl --manage": compact.StrategyModern,
		"Compact with diskpart":     compact.StrategyDiskpart,
		"Compact with Optimize-VHD": compact.StrategyOptimizeVHD,
	}
	found := 0
	for _, action := range menuActions(a) {
		want, ok := titles[action.Title]
		if !ok {
			continue
		}
		found++
		if !action.NeedsAdmin || action.Confirm == nil {
			t.Errorf("%q must require admin and confirmation", action.Title)
		}
		attempts = nil
		if _, err := action.Run(context.Background(), "Ubuntu"); err != nil {
			t.Fatalf("%q: %v", action.Title, err)
		}
		if diff := cmp.Diff([]compact.StrategyID{want}, attempts); diff != "" {
			t.Errorf("%q attempts mismatch (-want +got):\n%s", action.Title, diff)
		}
	}
	if found != len(titles) {
		t.Fatalf("found %d single-strategy entries, want %d", found, len(titles))
	}
}
