// Command pongclient is a headless player. Paddle input is read from stdin,
// one command per line: "u" moves up, "d" moves down, anything else stops.
// The game is reported through the log.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/cyberinferno/netpong/client"
	"github.com/cyberinferno/netpong/config"
	"github.com/cyberinferno/netpong/game"
	"github.com/cyberinferno/netpong/logger"
)

const serviceName = "pongclient"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", ".env", "path to a .env file")
	server := flag.String("server", "", "relay address host:port, overrides the config")
	flag.Parse()

	os.Exit(run(*configPath, *envFile, *server))
}

func run(configPath, envFile, server string) int {
	if err := config.LoadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return client.ExitConfig
	}

	cfg, err := config.LoadClient(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return client.ExitConfig
	}

	if server != "" {
		cfg.ServerAddr = server
	}

	log, err := logger.New(cfg.Log.Options(serviceName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return client.ExitConfig
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = play(ctx, *cfg, log, newStdinInput(os.Stdin))
	code := client.ExitCode(err)
	if code != client.ExitOK {
		log.Error("client stopped", logger.Field{Key: "error", Value: err}, logger.Field{Key: "exit_code", Value: code})
	}

	return code
}

func play(ctx context.Context, cfg config.Client, log logger.Logger, input client.Input) error {
	conn, err := client.Dial(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	setup, err := conn.Handshake(ctx)
	if err != nil {
		return err
	}

	loop := client.NewLoop(client.NewState(setup.Side, setup.Width, setup.Height), conn, client.LoopOptions{
		Interval:     cfg.TickInterval(),
		GameOverHold: cfg.GameOverHold,
		Input:        input,
		Observer:     client.LogObserver{Log: log},
		Log:          log,
	})

	return loop.Run(ctx)
}

// stdinInput holds the last direction read from its reader.
type stdinInput struct {
	dir atomic.Uint32
}

func newStdinInput(r io.Reader) *stdinInput {
	in := &stdinInput{}
	go in.read(r)
	return in
}

func (s *stdinInput) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.dir.Store(uint32(parseDirection(scanner.Text())))
	}
}

func (s *stdinInput) Direction() game.Direction {
	return game.Direction(s.dir.Load())
}

func parseDirection(line string) game.Direction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "u", "up":
		return game.DirectionUp
	case "d", "down":
		return game.DirectionDown
	default:
		return game.DirectionIdle
	}
}
