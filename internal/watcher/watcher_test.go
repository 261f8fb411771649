package watcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KizzyCode/MinecraftWebhook/internal/watcher"
	"github.com/KizzyCode/MinecraftWebhook/internal/webhook"
)

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("failed to write config: %s", err)
		}
	}

	write("[rcon]\naddress = \"mc:25575\"\n[webhooks]\nhello = \"say hi\"\n")

	hooks, err := webhook.NewHooks(map[string]string{"hello": "say hi"})
	if err != nil {
		t.Fatalf("NewHooks failed: %s", err)
	}

	w, err := watcher.New(path, hooks)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	defer w.Close()

	// A changed file swaps the table.
	write("[rcon]\naddress = \"mc:25575\"\n[webhooks]\nbackup = \"save-all\"\n")
	w.Reload()

	if _, ok := hooks.Lookup("hello"); ok {
		t.Error("stale webhook survived the reload")
	}
	if cmd, ok := hooks.Lookup("backup"); !ok || cmd != "save-all" {
		t.Errorf("Lookup(backup) = (%q, %v) after reload", cmd, ok)
	}

	// A broken file leaves the current table untouched.
	write("rcon = [")
	w.Reload()

	if cmd, ok := hooks.Lookup("backup"); !ok || cmd != "save-all" {
		t.Errorf("Lookup(backup) = (%q, %v) after failed reload", cmd, ok)
	}
}
