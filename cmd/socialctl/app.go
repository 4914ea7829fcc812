package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	session "github.com/goliatone/go-social-session"
	"github.com/goliatone/go-social-session/activitymap"
	"github.com/goliatone/go-social-session/repository"
)

type app struct {
	opts      *session.Options
	logger    session.Logger
	tokens    session.TokenStore
	decoder   session.TokenDecoder
	store     *session.Store
	navigator *session.HistoryNavigator
	validator *session.Validator
	client    *session.Client
	service   *session.Service
	registry  *prometheus.Registry
	metrics   *session.MetricsSink
	audit     session.ActivitySink
	closers   []func()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	opts, err := session.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:     opts,
		logger:   &logger{debug: opts.Debug},
		registry: prometheus.NewRegistry(),
	}

	tokens, closeTokens, err := repository.Open(ctx, opts.Storage, opts.GetTokenKey())
	if err != nil {
		return nil, err
	}
	a.tokens = tokens
	a.closers = append(a.closers, func() {
		if err := closeTokens(); err != nil {
			a.logger.Error("failed to close token store: %s", err)
		}
	})

	decoder, closeDecoder, err := session.NewDecoder(opts, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.decoder = decoder
	a.closers = append(a.closers, closeDecoder)

	a.metrics, err = session.NewMetricsSink(a.registry, "")
	if err != nil {
		a.Close()
		return nil, err
	}

	a.audit = newAuditSink(opts)
	sink := session.MultiActivitySink{a.metrics, a.audit}

	a.store = session.NewStore()
	a.navigator = session.NewHistoryNavigator(opts.GetRoutes().Home, a.logger)

	a.validator = session.NewValidator(tokens, decoder, a.store, session.NewRedirectPolicy(opts.GetRoutes()),
		session.WithGraceWindow(opts.GetGraceWindow()),
		session.WithNavigator(a.navigator),
		session.WithValidatorLogger(a.logger),
		session.WithValidatorActivitySink(sink),
	)

	a.client, err = session.NewClient(opts.GetBaseURL(),
		session.WithTokenSource(tokens),
		session.WithEndpoints(opts.GetEndpoints()),
		session.WithRequestTimeout(opts.GetRequestTimeout()),
		session.WithClientLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = session.NewService(a.client, a.validator,
		session.WithServiceLogger(a.logger),
		session.WithServiceActivitySink(sink),
	)

	return a, nil
}

func newAuditSink(opts *session.Options) session.ActivitySink {
	if !opts.Audit {
		return nil
	}
	return activitymap.NewWriterSink(os.Stderr, activitymap.WithDefaultChannel("socialctl"))
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type logger struct {
	debug bool
}

func (l *logger) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[ERR] socialctl "+format+"\n", args...)
}

func (l *logger) Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[INF] socialctl "+format+"\n", args...)
}

func (l *logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "[DBG] socialctl "+format+"\n", args...)
}
