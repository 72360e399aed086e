// Command resp3cli connects to a Redis server, issues a handful of commands
// over the client package's pipelined Engine and prints their replies. It
// exists to exercise the public API end-to-end against a real server,
// mirroring the receiver pattern of a minimal pub/sub echo client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/grafikrobot/boostorg.redis/client"
	"github.com/grafikrobot/boostorg.redis/command"
	"github.com/grafikrobot/boostorg.redis/resp3"
)

type config struct {
	Address string `arg:"--address" env:"RESP3CLI_ADDRESS" help:"address of the Redis server" default:"127.0.0.1:6379"`
	Channel string `arg:"--channel" env:"RESP3CLI_CHANNEL" help:"channel to subscribe to and print push messages from" default:"resp3cli"`
	Debug   bool   `arg:"--debug" env:"RESP3CLI_DEBUG" help:"enable debug logging"`
}

func main() {
	var cfg config
	arg.MustParse(&cfg)

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resp3cli: failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Error("exiting", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, err := client.Dial(ctx, cfg.Address, client.Config{DialTimeout: 5 * time.Second}, log)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Address, err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(ctx) }()

	// Give the handshake a moment to complete before issuing commands.
	deadline := time.After(2 * time.Second)
	for engine.State() != client.StateRunning {
		select {
		case err := <-runErr:
			return fmt.Errorf("engine stopped before becoming ready: %w", err)
		case <-deadline:
			return fmt.Errorf("timed out waiting for engine to become ready")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	go printPushes(engine, log)

	if err := engine.Send(ctx, command.Subscribe, resp3.Ignore{}, client.StringArg(cfg.Channel)); err != nil {
		log.Warn("subscribe failed", zap.Error(err))
	}

	var pong resp3.Scalar[string]
	if err := engine.Send(ctx, command.Ping, &pong); err != nil {
		log.Warn("ping failed", zap.Error(err))
	} else {
		fmt.Println("PING:", pong.Value)
	}

	var setReply resp3.Scalar[string]
	if err := engine.Send(ctx, command.Set, &setReply, client.StringArg("resp3cli:greeting"), client.StringArg("hello")); err != nil {
		log.Warn("set failed", zap.Error(err))
	}

	var getReply resp3.Scalar[string]
	if err := engine.Send(ctx, command.Get, &getReply, client.StringArg("resp3cli:greeting")); err != nil {
		log.Warn("get failed", zap.Error(err))
	} else {
		fmt.Println("GET resp3cli:greeting:", getReply.Value)
	}

	<-ctx.Done()
	stop()
	return <-runErr
}

func printPushes(engine *client.Engine, log *zap.Logger) {
	for nodes := range engine.Pushes() {
		if len(nodes) == 0 {
			continue
		}
		log.Info("push received", zap.Int("nodes", len(nodes)))
	}
}
