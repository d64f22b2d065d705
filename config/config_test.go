package config

import (
	"strings"
	"testing"

	"github.com/p2panda/p2panda-go/authgraph"
)

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default()
	if cfg.Orderer.MaxPendingPerAuthor == 0 {
		t.Fatal("expected a nonzero default pending watermark")
	}
	if cfg.DefaultAccessLevel() != authgraph.Write {
		t.Fatalf("expected default access write, got %v", cfg.DefaultAccessLevel())
	}
}

func TestLoadReaderOverridesDefaults(t *testing.T) {
	src := `
[orderer]
maxpendingperauthor = 256

[spaces]
defaultaccess = "manage"
`
	cfg, err := LoadReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if cfg.Orderer.MaxPendingPerAuthor != 256 {
		t.Fatalf("expected override to 256, got %d", cfg.Orderer.MaxPendingPerAuthor)
	}
	if cfg.DefaultAccessLevel() != authgraph.Manage {
		t.Fatalf("expected manage, got %v", cfg.DefaultAccessLevel())
	}
	if cfg.DCGKA.OutOfOrderTolerance == 0 {
		t.Fatal("expected untouched section to keep its default")
	}
}
