package webhook

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"sync"
)

// Hooks maps webhook names to their configured command strings. The table
// is blinded: keys are SHA-512/256 digests of the name concatenated with a
// random per-process secret, so neither the raw hook names nor their
// commands can be recovered from a memory dump of the map keys alone, and
// lookups don't leak name lengths through map internals.
//
// The table can be swapped atomically at runtime, which is how config
// reloads propagate.
type Hooks struct {
	secret [32]byte

	mu    sync.RWMutex
	table map[[32]byte]string
}

// NewHooks builds a blinded table from the configured name→command map.
func NewHooks(hooks map[string]string) (*Hooks, error) {
	h := &Hooks{}
	if _, err := rand.Read(h.secret[:]); err != nil {
		return nil, fmt.Errorf("generating blinding secret: %w", err)
	}
	h.Replace(hooks)
	return h, nil
}

// Replace swaps the table contents for a new name→command map.
func (h *Hooks) Replace(hooks map[string]string) {
	table := make(map[[32]byte]string, len(hooks))
	for name, command := range hooks {
		table[h.blind(name)] = command
	}

	h.mu.Lock()
	h.table = table
	h.mu.Unlock()
}

// Lookup resolves a webhook name to its command.
func (h *Hooks) Lookup(name string) (string, bool) {
	key := h.blind(name)

	h.mu.RLock()
	defer h.mu.RUnlock()
	command, ok := h.table[key]
	return command, ok
}

// Len reports the number of configured webhooks.
func (h *Hooks) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.table)
}

func (h *Hooks) blind(name string) [32]byte {
	d := sha512.New512_256()
	d.Write([]byte(name))
	d.Write(h.secret[:])

	var key [32]byte
	copy(key[:], d.Sum(nil))
	return key
}
