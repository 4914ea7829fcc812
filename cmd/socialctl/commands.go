package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goliatone/go-print"

	session "github.com/goliatone/go-social-session"
	"github.com/goliatone/go-social-session/web"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":    loginCmd,
	"register": registerCmd,
	"verify":   verifyCmd,
	"resend":   resendCmd,
	"logout":   logoutCmd,
	"status":   statusCmd,
	"watch":    watchCmd,
	"serve":    serveCmd,
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("SOCIAL_PASSWORD"), "account password")
	_ = fs.Parse(args)

	sess, err := a.service.Login(ctx, session.LoginRequest{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	return a.report(sess)
}

func registerCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "public username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("SOCIAL_PASSWORD"), "account password")
	phone := fs.String("phone", "", "phone number, formatted as E.164 before sending")
	_ = fs.Parse(args)

	sess, err := a.service.Register(ctx, session.RegisterRequest{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *password,
		Phone:           *phone,
	})
	if err != nil {
		return err
	}

	fmt.Printf("check %s for the verification code, then run: socialctl verify -code <code>\n", sess.Email)
	return a.report(sess)
}

func verifyCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	code := fs.String("code", "", "verification code from the email")
	_ = fs.Parse(args)

	sess, err := a.service.Verify(ctx, session.VerifyRequest{Code: *code})
	if err != nil {
		return err
	}
	return a.report(sess)
}

func resendCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("resend", flag.ExitOnError)
	email := fs.String("email", "", "account email, defaults to the current session email")
	_ = fs.Parse(args)

	if *email == "" {
		res, err := a.validator.Check(ctx)
		if err != nil {
			return err
		}
		*email = res.Session.Email
	}

	if err := a.service.ResendVerificationCode(ctx, session.ResendRequest{Email: *email}); err != nil {
		return err
	}
	fmt.Printf("verification code sent to %s\n", *email)
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	if err := a.service.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func statusCmd(ctx context.Context, a *app, _ []string) error {
	res, err := a.validator.Check(ctx)
	if err != nil {
		return err
	}

	out := map[string]any{
		"outcome": res.Outcome.String(),
	}
	if res.Outcome == session.OutcomeValid {
		out["session"] = res.Session
		out["expires_in"] = res.Session.ExpiresIn(time.Now()).Round(time.Second).String()
	}
	fmt.Println(print.MaybePrettyJSON(out))

	if res.Outcome != session.OutcomeValid {
		return session.ErrNotAuthenticated
	}
	return nil
}

func watchCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", a.opts.GetValidationInterval(), "revalidation interval")
	debounce := fs.Duration("debounce", a.opts.GetActivityDebounce(), "activity debounce")
	_ = fs.Parse(args)

	unsubscribe := a.store.Subscribe(func(sess session.Session, ok bool) {
		if !ok {
			fmt.Println("session cleared")
			return
		}
		fmt.Printf("session %s\n", sess)
	})
	defer unsubscribe()

	monitor := session.NewMonitor(a.validator, session.MonitorOptions{
		Interval: *interval,
		Debounce: *debounce,
		Logger:   a.logger,
	})
	defer monitor.Close()
	if err := monitor.Start(ctx); err != nil {
		return err
	}

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			monitor.Activity(session.ActivityKey)
		}
	}()

	<-ctx.Done()

	if last, ok := a.navigator.Last(); ok {
		a.logger.Info("last redirect: %s -> %s", last.Action, last.Target)
	}
	return nil
}

func serveCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.opts.Web.Addr, "listen address")
	_ = fs.Parse(args)

	anonymous, err := session.NewClient(a.opts.GetBaseURL(),
		session.WithEndpoints(a.opts.GetEndpoints()),
		session.WithRequestTimeout(a.opts.GetRequestTimeout()),
		session.WithClientLogger(a.logger),
	)
	if err != nil {
		return err
	}

	srv, err := web.NewApp(web.AppConfig{
		Options:  a.opts,
		Client:   anonymous,
		Decoder:  a.decoder,
		Logger:   a.logger,
		Sink:     a.audit,
		Registry: a.registry,
		Metrics:  a.metrics,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening on %s", *addr)
		errCh <- srv.Listen(*addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (a *app) report(sess session.Session) error {
	fmt.Println(print.MaybePrettyJSON(sess))
	if last, ok := a.navigator.Last(); ok {
		fmt.Printf("next: %s\n", last.Target)
	}
	return nil
}
