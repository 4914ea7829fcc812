package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const usage = `socialctl manages the social network client session.

Usage:
  socialctl [-config file] <command> [flags]

Commands:
  login      authenticate with email and password
  register   create an account and start verification
  verify     confirm the account with the emailed code
  resend     ask for a new verification code
  logout     end the session
  status     validate the stored token and print the session
  watch      keep the session validated, each stdin line counts as activity
  serve      run the server rendered front end
`

func main() {
	global := flag.NewFlagSet("socialctl", flag.ExitOnError)
	configPath := global.String("config", os.Getenv("SOCIAL_CONFIG"), "path to the YAML config file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "socialctl %s: %s\n", args[0], err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(ctx, a, args)
}
