package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KizzyCode/MinecraftWebhook/internal/config"
	"github.com/KizzyCode/MinecraftWebhook/internal/history"
	"github.com/KizzyCode/MinecraftWebhook/internal/rcon"
	"github.com/KizzyCode/MinecraftWebhook/internal/status"
	"github.com/KizzyCode/MinecraftWebhook/internal/telegram"
	"github.com/KizzyCode/MinecraftWebhook/internal/watcher"
	"github.com/KizzyCode/MinecraftWebhook/internal/webhook"
)

var debugPackets bool

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Minecraft webhook bridge",
	Long: `Bridge HTTP webhooks to a Minecraft server's RCON interface.

It operates in two modes:
  serve - Runs the bridge daemon: webhook endpoints, web console and
          the optional Telegram bot
  exec  - Runs a single RCON command and prints the response`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Run:   runServe,
}

var execCmd = &cobra.Command{
	Use:   "exec <command>...",
	Short: "Run one RCON command and print the response",
	Args:  cobra.MinimumNArgs(1),
	Run:   runExec,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&debugPackets, "debug-packets", false,
		"log RCON packets in hex (passwords are scrubbed)")
	rootCmd.AddCommand(serveCmd, execCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRconClient builds the shared RCON client from the loaded config.
func newRconClient(cfg *config.Config) *rcon.Client {
	var logger *slog.Logger
	if debugPackets {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return rcon.NewClient(rcon.Config{
		Addr:        cfg.Rcon.Address,
		Password:    cfg.Rcon.Password,
		DialTimeout: cfg.RconTimeout(),
		Timeout:     cfg.RconTimeout(),
		Logger:      logger,
	})
}

func runServe(_ *cobra.Command, _ []string) {
	path := config.Path()
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client := newRconClient(cfg)
	defer client.Close()

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("history: %v", err)
		}
		defer store.Close()
	}

	var checker *status.Checker
	if cfg.Rcon.GameAddress != "" {
		checker = status.NewChecker(cfg.Rcon.GameAddress)
	}

	hooks, err := webhook.NewHooks(cfg.Webhooks)
	if err != nil {
		log.Fatalf("webhooks: %v", err)
	}
	log.Printf("bridge: %d webhooks configured", hooks.Len())

	// Webhook edits take effect without a restart; everything else needs one.
	w, err := watcher.New(path, hooks)
	if err != nil {
		log.Printf("bridge: WARN config reload disabled: %v", err)
	} else {
		defer w.Close()
	}

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(telegram.Config{
			Token:        cfg.Telegram.Token,
			AllowedUsers: cfg.Telegram.AllowedUsers,
			Exec:         client,
			Status:       checker,
			Store:        store,
		})
		if err != nil {
			log.Fatalf("telegram bot: %v", err)
		}
		go bot.Start()
		defer bot.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           webhook.NewServer(hooks, client, store, checker).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("bridge: listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("bridge: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("bridge: shutdown: %v", err)
	}
}

func runExec(_ *cobra.Command, args []string) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client := newRconClient(cfg)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Execute(ctx, strings.Join(args, " "))
	if err != nil {
		log.Fatalf("exec: %v", err)
	}
	fmt.Println(resp)
}
