package cmd

import (
	"github.com/xdg/consolex/internal/client"
	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/config"
	"github.com/xdg/consolex/internal/daemon"
)

// resolveAddr picks the daemon address: --addr, then the running daemon's
// state file, then server.listen from the config.
func resolveAddr() string {
	if addrFlag != "" {
		return addrFlag
	}
	if state, err := daemon.LoadState(); err == nil && daemon.IsRunning(state) {
		return state.Addr
	}
	cfg, err := config.Read()
	if err != nil {
		clog.Debug("config unavailable, using default address: %v", err)
		return config.DefaultListen
	}
	return cfg.Server.Listen
}

// newClient returns a client for the resolved daemon address.
func newClient() (*client.Client, string) {
	addr := resolveAddr()
	return client.New(addr), addr
}
