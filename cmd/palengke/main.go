package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/palengkeplus/palengke/config"
	"github.com/palengkeplus/palengke/internal/adminapi"
	"github.com/palengkeplus/palengke/internal/app"
	"github.com/palengkeplus/palengke/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "/etc/palengke.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, seed demo data")
)

var version = "dev"

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		return
	}
	if *showVer {
		fmt.Println("palengke", version)
		return
	}

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "init failed:", err)
		os.Exit(1)
	}
	defer application.Release()

	if *initdb {
		application.InitDb()
		application.CheckDemoProducts()
		zap.L().Info("database initialized")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := webserver.Init(application)
	adminapi.InitRouter()

	application.StartBackgroundJobs(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ws.Listen()
	})
	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")
		return ws.Shutdown()
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("server exited", zap.Error(err))
	}
}
