package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	cosmic "github.com/cosmicbank/cosmic-go"
	"github.com/cosmicbank/cosmic-go/middleware"
)

type CLI struct {
	Globals

	Version      VersionCmd      `cmd:"" help:"Print version information."`
	Call         CallCmd         `cmd:"" help:"Send a request and print the decoded response."`
	Accounts     AccountsCmd     `cmd:"" help:"Manage bank accounts."`
	Transactions TransactionsCmd `cmd:"" help:"List account transactions."`
}

// Globals are flags shared by every command. Values may also come from the
// environment or a .env file in the working directory.
type Globals struct {
	Config   string        `help:"YAML configuration file." type:"path" env:"COSMIC_CONFIG"`
	BaseURL  string        `help:"API base URL." name:"base-url" env:"COSMIC_BASE_URL"`
	Token    string        `help:"Bearer access token." env:"COSMIC_ACCESS_TOKEN"`
	Timeout  time.Duration `help:"Per-attempt timeout." env:"COSMIC_TIMEOUT"`
	Attempts int           `help:"Maximum attempts per call, including the first." env:"COSMIC_RETRY_ATTEMPTS"`
	Verbose  bool          `help:"Log requests to stderr." short:"v"`
}

// client builds a client from the config file, then the flags.
func (g *Globals) client() (*cosmic.Client, error) {
	var opts []cosmic.Option
	if g.Config != "" {
		fileOpts, err := cosmic.LoadConfigFile(g.Config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}
	if g.BaseURL != "" {
		opts = append(opts, cosmic.WithBaseURL(g.BaseURL))
	}
	if g.Token != "" {
		opts = append(opts, cosmic.WithAccessToken(g.Token))
	}
	if g.Timeout > 0 {
		opts = append(opts, cosmic.WithTimeout(g.Timeout))
	}
	if g.Attempts > 0 {
		opts = append(opts, cosmic.WithRetryAttempts(g.Attempts))
	}

	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	clientOpts := []cosmic.ClientOption{
		cosmic.WithConfig(opts...),
		cosmic.WithLogger(logger),
		cosmic.WithHandlers(middleware.IdempotencyKey()),
	}
	if g.Verbose {
		clientOpts = append(clientOpts, cosmic.WithHandlers(middleware.Logging(logger)))
	}
	return cosmic.NewClient(clientOpts...)
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "cosmic: load .env: %v\n", err)
		}
	}

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("cosmic"),
		kong.Description("Command-line client for the Cosmic Bank API."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
