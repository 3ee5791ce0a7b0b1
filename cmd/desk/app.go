package main

import (
	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/clients"
	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/localstore"
	"github.com/jrsteele09/contract-desk/schedule"
	"github.com/jrsteele09/contract-desk/token"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is everything a desk command needs, wired over the local store.
type app struct {
	db        *localstore.DB
	tokens    *token.Holder
	client    *apiclient.Client
	auth      *auth.Manager
	contracts *contracts.Service
	clients   *clients.Service
	schedule  *schedule.Service
	registry  *prometheus.Registry
}

func newApp(c config.Config) (_ *app, returnError error) {
	db, err := localstore.OpenFolder(c.GetDataFolder())
	if err != nil {
		return nil, err
	}
	defer func() {
		if returnError != nil {
			_ = db.Close()
		}
	}()

	jar, err := db.CookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] cookie jar")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	endpoints := apiclient.EndpointsFor(c.GetAuthRoutes())
	tokens := token.NewHolder()
	client, err := apiclient.New(c.GetAPIBaseURL(), tokens,
		apiclient.WithTimeout(c.GetRequestTimeout()),
		apiclient.WithCookieJar(jar),
		apiclient.WithEndpoints(endpoints),
		apiclient.WithMetrics(registry),
	)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager(client, tokens, db.SessionStore(),
		auth.WithEndpoints(endpoints),
		auth.WithPlaceholderUser(c.AllowPlaceholderUser()),
	)
	if err != nil {
		return nil, err
	}
	contractService, err := contracts.NewService(client)
	if err != nil {
		return nil, err
	}
	clientService, err := clients.NewService(db.Clients())
	if err != nil {
		return nil, err
	}
	scheduleService, err := schedule.NewService(db.Events())
	if err != nil {
		return nil, err
	}

	return &app{
		db:        db,
		tokens:    tokens,
		client:    client,
		auth:      manager,
		contracts: contractService,
		clients:   clientService,
		schedule:  scheduleService,
		registry:  registry,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(fn func(c config.Config, a *app) error) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(c, a)
}
