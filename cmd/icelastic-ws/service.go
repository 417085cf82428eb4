package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/npolar/icelastic-ws/internal/backend"
	"github.com/npolar/icelastic-ws/internal/defaults"
	"github.com/npolar/icelastic-ws/internal/metrics"
	"github.com/npolar/icelastic-ws/internal/writer"
)

type serviceOptions struct {
	backend      backend.Backend       // built from config when nil
	registerer   prometheus.Registerer // prometheus defaults when nil
	gatherer     prometheus.Gatherer
	instrumented bool // adds per-route request metrics
}

type serviceContext struct {
	config       *serviceConfig
	registry     *defaults.Registry
	backend      backend.Backend
	writers      *writer.Registry
	metrics      *metrics.Metrics
	registerer   prometheus.Registerer
	gatherer     prometheus.Gatherer
	version      serviceVersion
	instrumented bool
}

func initializeService(cfg *serviceConfig, opts serviceOptions) (*serviceContext, error) {
	svc := serviceContext{
		config:       cfg,
		registry:     cfg.registry(),
		version:      buildVersion(),
		instrumented: opts.instrumented,
	}

	svc.version.logVersion()

	writers, err := writer.Standard()
	if err != nil {
		return nil, err
	}
	svc.writers = writers

	svc.backend = opts.backend
	if svc.backend == nil {
		if svc.backend, err = backend.New(cfg.backendConfig()); err != nil {
			return nil, fmt.Errorf("backend setup: %w", err)
		}
	}

	svc.registerer = opts.registerer
	if svc.registerer == nil {
		svc.registerer = prometheus.DefaultRegisterer
	}
	svc.gatherer = opts.gatherer
	if svc.gatherer == nil {
		svc.gatherer = prometheus.DefaultGatherer
	}
	svc.metrics = metrics.New(svc.registerer)

	p := svc.registry.DefaultParams()
	g := svc.registry.DefaultGeoFields()

	log.Infof("[SERVICE] backend.engine     = [%s]", svc.backend.Name())
	log.Infof("[SERVICE] backend.addresses  = [%s]", strings.Join(cfg.Backend.Addresses, ", "))
	log.Infof("[SERVICE] backend.index      = [%s]", cfg.Backend.Index)
	log.Infof("[SERVICE] defaults.limit     = [%d]", p.Limit)
	log.Infof("[SERVICE] defaults.sizeFacet = [%d]", p.SizeFacet)
	log.Infof("[SERVICE] defaults.variant   = [%s]", p.Variant)
	log.Infof("[SERVICE] geo.coordinates    = [%s, %s, %s]", g.Longitude, g.Latitude, g.Altitude)
	log.Infof("[SERVICE] search.catchAll    = [%s]", svc.registry.CatchAll())
	log.Infof("[SERVICE] writers            = [%s]", strings.Join(svc.writers.Formats(), ", "))

	return &svc, nil
}
