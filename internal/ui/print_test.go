package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterWritesMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Header("VHDX files")
	p.Success("compacted %s", "Ubuntu")
	p.Warning("not elevated")
	p.Error("failed: %d", 3)
	p.Hint("run as administrator")
	p.KeyValue("Path", `C:\wsl\ext4.vhdx`)

	out := buf.String()
	for _, want := range []string{"VHDX files", "compacted Ubuntu", "not elevated", "failed: 3", "run as administrator", `C:\wsl\ext4.vhdx`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUsageBarWidth(t *testing.T) {
	for _, pct := range []float64{-5, 0, 33, 80, 100, 140} {
		bar := UsageBar(pct, 20)
		n := strings.Count(bar, IconBlock) + strings.Count(bar, IconShade)
		if n != 20 {
			t.Errorf("UsageBar(%v) has %d cells, want 20", pct, n)
		}
	}
	if UsageBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}
