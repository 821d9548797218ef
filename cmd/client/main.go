package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/api"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/cli"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/iocli"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "tutor-client.db", "Path to local session database")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	stdio := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.Usage(stdio)
		os.Exit(1)
	}

	command := args[0]

	ctx := context.Background()

	// Открываем локальное хранилище сессии
	store, err := boltdb.New(ctx, *dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	apiClient := api.NewClient(*serverURL)
	app := cli.New(apiClient, store, stdio, logger)

	// Выполняем команду
	var cmdErr error
	switch command {
	case "login":
		cmdErr = app.Login(ctx)
	case "logout":
		cmdErr = app.Logout(ctx)
	case "register":
		cmdErr = app.Register(ctx)
	case "status":
		cmdErr = app.Status(ctx)
	case "profile":
		cmdErr = app.Profile(ctx, args[1:])
	case "passwd":
		cmdErr = app.Passwd(ctx)
	case "watch":
		cmdErr = app.Watch(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(stdio)
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Tutor Platform Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
