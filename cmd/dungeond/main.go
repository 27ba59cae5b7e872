/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// dungeond runs the dungeon bot: it connects to the Discord gateway,
// reconciles existing dungeons, and serves the lifecycle controller
// until a signal or a fatal handler error stops it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yourdungeon/dungeond/internal/config"
	"github.com/yourdungeon/dungeond/internal/controller"
	"github.com/yourdungeon/dungeond/internal/discord"
)

// drainTimeout bounds the shutdown sweep of empty dungeons.
const drainTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("invalid configuration", zap.Error(err))
	}

	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal("creating session failed", zap.Error(err))
	}
	session.Identify.Intents = discord.Intents()

	provider := discord.NewProvider(session, log.Named("discord"))
	notifier := discord.NewNotifier(session)
	ctrl := controller.New(controller.Options{
		Prefix:            cfg.Prefix,
		TriggerChannel:    cfg.TriggerChannel,
		Category:          cfg.Category,
		InactivityTimeout: cfg.InactivityTimeout,
	}, provider, notifier, log.Named("controller"))
	discord.NewBridge(session, ctrl, log.Named("bridge"))

	if err := session.Open(); err != nil {
		log.Fatal("opening gateway connection failed", zap.Error(err))
	}
	log.Info("dungeond is running",
		zap.String("trigger_channel", cfg.TriggerChannel),
		zap.String("category", cfg.Category),
		zap.Duration("inactivity_timeout", cfg.InactivityTimeout),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info("shutting down on signal", zap.String("signal", s.String()))
	case err := <-ctrl.Fatal():
		log.Error("shutting down on fatal handler error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	ctrl.Drain(ctx)
	cancel()

	if err := session.Close(); err != nil {
		log.Warn("closing gateway connection", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return zap.Must(cfg.Build())
}
