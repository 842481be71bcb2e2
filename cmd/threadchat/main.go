package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/brunodmn/threadchat/internal/app"
	"github.com/brunodmn/threadchat/internal/config"
	"github.com/brunodmn/threadchat/internal/session"
	"github.com/brunodmn/threadchat/internal/tui"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	wrote, err := bootstrapConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if wrote {
		fmt.Fprintf(os.Stderr, "wrote starter config to %s; set server_url, token and user_id, then run again\n", session.ConfigPath())
		os.Exit(1)
	}

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var ui *tui.App
	fxApp := fx.New(
		app.Module(app.Params{Profile: profile}),
		fx.Populate(&ui),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := ui.Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

// bootstrapConfig writes a starter config on first run so the user has
// a file to fill in rather than an opaque load error.
func bootstrapConfig() (bool, error) {
	path := session.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	starter := &config.Config{
		ServerURL:          "http://localhost:8090",
		CacheMaxAgeMinutes: 60,
	}
	if err := config.Save(path, starter); err != nil {
		return false, err
	}
	return true, nil
}
