package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"deepchat/config"
	appmodel "deepchat/model"
	"deepchat/ollama"
	"deepchat/storage"
	"deepchat/ui"
)

const (
	Version = "v0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.DataDir(), cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to initialize debug log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting", zap.String("version", Version), zap.String("data_dir", cfg.DataDir()))

	store, err := storage.NewStore(cfg.HistoryDir())
	if err != nil {
		fmt.Printf("Failed to initialize chat history: %v\n", err)
		os.Exit(1)
	}

	// The sidebar still refreshes after each exchange without a watcher
	watcher, err := storage.Watch(store.Dir(), logger)
	if err != nil {
		logger.Warn("history watcher unavailable", zap.Error(err))
		watcher = nil
	} else {
		defer func() { _ = watcher.Close() }()
	}

	client, err := ollama.NewClient(cfg.OllamaHost(), cfg.ModelFilter(), nil, logger)
	if err != nil {
		fmt.Printf("Failed to configure Ollama client: %v\n", err)
		os.Exit(1)
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("ollama server not reachable", zap.String("host", client.BaseURL()), zap.Error(err))
	}
	cancelPing()

	keys, err := config.LoadKeybindings(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to load keybindings: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := appmodel.NewEngine(client, cfg.Chat.KeepPartialOnError, logger)
	chat := appmodel.NewChat(store, engine, logger)

	p := tea.NewProgram(
		ui.NewAppView(ctx, chat, client, watcher, keys, logger),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
