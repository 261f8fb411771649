// Package watcher reloads the webhook table when the configuration file
// changes on disk. Only the [webhooks] section takes effect at runtime;
// listener and RCON settings still require a restart.
package watcher

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KizzyCode/MinecraftWebhook/internal/config"
	"github.com/KizzyCode/MinecraftWebhook/internal/webhook"
)

const debounceInterval = 500 * time.Millisecond

// Watcher re-reads the config file on change and swaps the webhook table.
type Watcher struct {
	path  string
	hooks *webhook.Hooks
	fsW   *fsnotify.Watcher
	done  chan struct{}
}

// New starts watching the config file at path. The parent directory is
// watched rather than the file itself so that editors and configuration
// management tools that replace the file atomically keep triggering events.
func New(path string, hooks *webhook.Hooks) (*Watcher, error) {
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsW.Close()
		return nil, err
	}
	if err := fsW.Add(filepath.Dir(abs)); err != nil {
		fsW.Close()
		return nil, err
	}

	w := &Watcher{path: abs, hooks: hooks, fsW: fsW, done: make(chan struct{})}
	go w.watchLoop()

	log.Printf("watcher: watching %s for webhook changes", abs)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsW.Close()
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsW.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Editors fire bursts of events per save; collapse them.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, w.Reload)

		case err, ok := <-w.fsW.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// Reload re-reads the config file and swaps the webhook table. A file that
// fails to parse leaves the current table untouched.
func (w *Watcher) Reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		log.Printf("watcher: keeping current webhooks, reload failed: %v", err)
		return
	}

	w.hooks.Replace(cfg.Webhooks)
	log.Printf("watcher: reloaded %d webhooks", len(cfg.Webhooks))
}
