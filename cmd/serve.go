package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/server"
	"github.com/urfave/cli/v3"
)

// controlRouter mounts the control endpoints behind recovery and request logging.
func controlRouter(ctrl server.Controller, inbox server.AchievementInbox, logger *log.Logger) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.Logging(logger))
	router.Handler(server.NewControlHandler(ctrl, inbox))
	return router
}

func (r *Runner) serveControl(ctx context.Context, addr string, stack *playerStack) error {
	router := controlRouter(stack.engine, stack.dispatcher.Inbox(), r.logger)
	return server.Run(ctx, addr, router, r.logger)
}

// Serve runs a headless player until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.resolveQueue(ctx, cmd)
	if err != nil {
		return err
	}

	stack, err := r.newPlayerStack(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	startQueue(stack.engine, tracks, cmd)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.serveControl(ctx, addr, stack)
}
