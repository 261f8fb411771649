package domain

import "context"

// CommandExecutor runs one command on the Minecraft server's remote console
// and returns the reassembled response text. Implementations must be safe
// for concurrent use; the bridge's triggers (webhooks, the web console, the
// Telegram bot) share a single executor.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (string, error)
}
