// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// parseAttributes picks the parser for a queried device and runs it. The
// parser is the one cached at discovery, except for RAID passthrough
// devices: a controller can expose either an ATA or a SCSI drive behind
// the same selector, so the result's own reported protocol decides
// between the SAT and SCSI parsers.
func parseAttributes(out []byte, result *SmartCtlOutput, dev *Device, exitStatus int) (map[string]Attribute, error) {
	family := dev.Family
	if dev.MegaraidID != "" {
		switch result.Device.Protocol {
		case "ATA":
			family = FamilySAT
		case "SCSI":
			family = FamilySCSI
		}
	}

	switch family {
	case FamilySAT:
		return parseSAT(result, exitStatus)
	case FamilyNVMe:
		return parseNVMe(result, exitStatus)
	default:
		return parseSCSI(out, result, exitStatus)
	}
}

func collectDevice(ctx context.Context, cfg Config, dev *Device) (map[string]Attribute, error) {
	out, exitStatus, err := queryAttributes(ctx, cfg, dev)
	if err != nil {
		return nil, err
	}

	var result SmartCtlOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parsing smartctl output: %w", err)
	}

	return parseAttributes(out, &result, dev, exitStatus)
}

// collectOnce runs one collection pass over all devices. Each device is
// collected independently; a failure aborts only that device's update
// for this cycle and is the terminal handling point for the error.
func collectOnce(ctx context.Context, cfg Config, devices map[string]*Device, registry *Registry, nc *nats.Conn) {
	for handle, dev := range devices {
		attrs, err := collectDevice(ctx, cfg, dev)
		if err != nil {
			log.Error().Err(err).Str("device", handle).Msg("error collecting device attributes")
			continue
		}

		labels := dev.promLabels()
		for name, attr := range attrs {
			registry.Update(name, attr, labels)
		}

		if nc != nil {
			if err := publishHealthEvent(nc, cfg, dev, attrs); err != nil {
				log.Error().Err(err).Str("device", handle).Msg("error publishing health event")
			}
		}
	}
}

// StartMonitoring discovers devices once, starts the scrape endpoint and
// collects attributes for all devices at the configured interval until
// the process is terminated. Cycles never overlap: the next tick fires
// only after the previous pass finished, so a slow pass stretches the
// effective interval.
func StartMonitoring(cfg Config) {
	if !checkSmartctlInstalled() {
		log.Fatal().Msg("smartctl is not installed. please install smartmontools package.")
	}

	ctx := context.Background()

	devices, err := discoverDevices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error discovering devices")
	}
	if len(devices) == 0 {
		log.Fatal().Msg("No devices found for monitoring.")
	}

	handles := make([]string, 0, len(devices))
	for handle := range devices {
		handles = append(handles, handle)
	}
	log.Info().Strs("Devices", handles).Msg("Devices for monitoring")

	var nc *nats.Conn
	if cfg.UseNats {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error connecting to nats")
		}
		defer nc.Close()
	}

	registry := NewRegistry()
	StartMetricsServer(cfg, registry)

	collectOnce(ctx, cfg, devices, registry, nc)

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		collectOnce(ctx, cfg, devices, registry, nc)
	}
}
