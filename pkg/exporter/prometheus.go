// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

var metricLabels = []string{"drive", "type", "model_family", "model_name", "serial_number", "capacity"}

var normalizeChars = regexp.MustCompile(`[-\s./]`)

// normalizeName derives the metric name suffix from a raw attribute name.
func normalizeName(name string) string {
	return normalizeChars.ReplaceAllString(strings.ToLower(name), "_")
}

// Registry maps normalized attribute names to lazily created gauge
// vectors on a dedicated Prometheus registry. It only ever grows: the
// exported catalog matches whatever attribute names the monitored fleet
// reports over the process lifetime, and series are never retracted.
// Updates run on the collection goroutine while scrapes read
// concurrently, so registration goes through a mutex.
type Registry struct {
	mu      sync.Mutex
	prom    *prometheus.Registry
	metrics map[string]*prometheus.GaugeVec
}

func NewRegistry() *Registry {
	return &Registry{
		prom:    prometheus.NewRegistry(),
		metrics: make(map[string]*prometheus.GaugeVec),
	}
}

// Update sets the current value of one attribute for one device, creating
// the backing gauge vector on first sight of the normalized name. The
// first registration fixes the description; later sightings only touch
// the value.
func (r *Registry) Update(name string, attr Attribute, labels prometheus.Labels) {
	normalized := normalizeName(name)

	r.mu.Lock()
	gauge, ok := r.metrics[normalized]
	if !ok {
		// The attribute code (or failing that, the value itself) is kept
		// in the help string so operators can trace a series back to the
		// vendor attribute table.
		code := attr.Code
		if !attr.HasCode {
			code = int64(attr.Value)
		}
		gauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smartmon_" + normalized,
				Help: fmt.Sprintf("(%s) %s", hexCode(code), strings.ReplaceAll(name, "_", " ")),
			},
			metricLabels,
		)
		r.prom.MustRegister(gauge)
		r.metrics[normalized] = gauge
	}
	r.mu.Unlock()

	gauge.With(labels).Set(attr.Value)
}

// hexCode renders the code hint for a help string. A code-less attribute
// reuses its value as the hint, which can be negative (an unknown health
// verdict); the sign stays outside the hex prefix.
func hexCode(code int64) string {
	if code < 0 {
		return fmt.Sprintf("-0x%02x", -code)
	}
	return fmt.Sprintf("0x%02x", code)
}

// Gather exposes the underlying registry state, used by tests and the
// scrape handler.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.prom.Gather()
}

func (r *Registry) handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

// StartMetricsServer serves the registry on the configured scrape
// endpoint. Registration keeps happening while scrapes come in; the
// registry's own locking covers that.
func StartMetricsServer(cfg Config, registry *Registry) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", registry.handler())
		addr := net.JoinHostPort(cfg.ListenAddress, strconv.Itoa(cfg.ListenPort))
		log.Info().Msgf("starting prometheus metrics server on %s", addr)
		err := http.ListenAndServe(addr, mux)
		if err != nil {
			log.Fatal().Err(err).Msg("error starting prometheus metrics server")
		}
	}()
}

func (d *Device) promLabels() prometheus.Labels {
	return prometheus.Labels{
		"drive":         d.Handle,
		"type":          d.Type,
		"model_family":  d.ModelFamily,
		"model_name":    d.ModelName,
		"serial_number": d.SerialNumber,
		"capacity":      d.Capacity,
	}
}
