package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/internal/app"
)

func consoleCmd() *cobra.Command {
	var (
		live    bool
		verbose bool
		user    string
	)
	c := &cobra.Command{
		Use:   "console",
		Short: "Chat with the assistant in the terminal",
		Long: `Starts a local conversation with the booking engine.

Without --config it runs in demo mode with in-memory storage. With --config the
file is loaded but demo mode is still forced unless --live is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := consoleConfig(live)
			if err != nil {
				return err
			}
			if verbose {
				if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
					return err
				}
				defer logger.Shutdown()
			}
			a, err := app.New(cfg, app.Deps{})
			if err != nil {
				return err
			}
			defer a.Close()

			key := booking.Key{Platform: booking.PlatformConsole, UserID: user}
			return repl(cmd.Context(), a, key, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	c.Flags().BoolVar(&live, "live", false, "use the configured platform API instead of demo providers")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "write structured logs")
	c.Flags().StringVar(&user, "user", "local", "user id of the console conversation")
	return c
}

func consoleConfig(live bool) (*app.Config, error) {
	if configPath == "" {
		cfg := &app.Config{}
		cfg.Booking.Demo = true
		return cfg, app.Normalize(cfg)
	}
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !live {
		cfg.Booking.Demo = true
	}
	return cfg, nil
}

func repl(ctx context.Context, a *app.App, key booking.Key, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	prompt := color.GreenString("vous> ")
	fmt.Fprintln(out, color.HiBlackString("Tapez /start pour commencer, /quit pour sortir."))
	fmt.Fprint(out, prompt)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			fmt.Fprint(out, prompt)
			continue
		case "/quit", "/exit":
			return nil
		}

		reply, err := a.Bot().HandleText(ctx, key, text)
		if err != nil {
			fmt.Fprintln(out, color.RedString("erreur: %v", err))
		}
		fmt.Fprintln(out, color.CyanString(reply.Text))
		if len(reply.Choices) > 0 {
			fmt.Fprintln(out, color.HiBlackString("[ %s ]", strings.Join(reply.Choices, " | ")))
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
