package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/lepinkainen/bookscan/internal/library"
	"github.com/lepinkainen/bookscan/internal/server"
)

// ServeCmd runs the HTTP API until interrupted
type ServeCmd struct {
	Address string `help:"Listen address (defaults to server.address from config)"`
}

var notifyContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (s *ServeCmd) Run() error {
	address := s.Address
	if address == "" {
		address = config.ServerAddress
	}

	return withLibrary(func(lib *library.Library) error {
		ctx, stop := notifyContext()
		defer stop()

		srv := server.New(newIdentifier(), lib, server.WithCatalog(newCatalogClient()))
		if err := srv.Run(ctx, address); err != nil {
			return fmt.Errorf("serve %s: %w", address, err)
		}
		return nil
	})
}
