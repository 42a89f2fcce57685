package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/app"
	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/log"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/transport"
	"wastemarket/mobile/internal/validate"
)

const usage = `usage: marketctl <command> [flags]

commands:
  login -email E -password P
  register -username U -email E -password P
  logout
  whoami [-refresh]
  products [-feed] [-category C] [-search S] [-location L] [-status S]
           [-min-price N] [-max-price N] [-page N] [-limit N]
  product <id>
  post -title T -description D -price N -location L [-category C] [-image URI] [-name N]
  buy <product-id>
  categories
  listings [-page N] [-limit N] [-status S]
  orders [-page N] [-limit N] [-status S]
  purchases
  order <id>
  ship [-notes N] <id>
  deliver [-notes N] <id>
  cancel [-reason R] <id>
  upload <uri>
`

type command func(ctx context.Context, a *app.App, args []string) (any, error)

var commands = map[string]command{
	"login":      login,
	"register":   register,
	"logout":     logout,
	"whoami":     whoami,
	"products":   products,
	"product":    product,
	"post":       post,
	"buy":        buy,
	"categories": categories,
	"listings":   listings,
	"orders":     orders,
	"purchases":  purchases,
	"order":      order,
	"ship":       orderStatus(models.OrderShipped),
	"deliver":    orderStatus(models.OrderDelivered),
	"cancel":     cancel,
	"upload":     upload,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := log.NewWithWriter(stderr, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("init client failed")
		return 1
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("restore session failed")
		return 1
	}

	out, err := cmd(ctx, a, args[1:])
	if err != nil {
		report(stdout, logger, err)
		return 1
	}
	if err := writeJSON(stdout, out); err != nil {
		logger.Error().Err(err).Msg("write output failed")
		return 1
	}
	return 0
}

// report prints failures in the backend's error envelope so scripts see
// one shape for every command.
func report(w io.Writer, logger zerolog.Logger, err error) {
	resp := models.ErrorResponse{Message: transport.Message(err)}

	var apiErr *transport.APIError
	var verr *validate.Error
	switch {
	case errors.As(err, &apiErr):
		resp.Errors = apiErr.Errors
		logger.Debug().Str("kind", apiErr.Kind.String()).Int("status", apiErr.Status).Msg("request failed")
	case errors.As(err, &verr):
		resp.Errors = verr.Errors
	case errors.Is(err, flag.ErrHelp):
		return
	}
	_ = writeJSON(w, resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
