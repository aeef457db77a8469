// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// HealthEvent is published to NATS when a device reports a failed SMART
// verdict.
type HealthEvent struct {
	NodeName   string            `json:"node_name"`
	InstanceID string            `json:"instance_id"`
	Device     string            `json:"device"`
	EventType  string            `json:"event_type"`
	Severity   string            `json:"severity"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"`
}

func convertToHealthEvent(cfg Config, dev *Device, attrs map[string]Attribute) HealthEvent {
	details := make(map[string]string)
	for name, attr := range attrs {
		details[name] = fmt.Sprintf("%g", attr.Value)
	}
	details["model_name"] = dev.ModelName
	details["serial_number"] = dev.SerialNumber

	return HealthEvent{
		NodeName:   cfg.NodeName,
		InstanceID: cfg.InstanceID,
		Device:     dev.Handle,
		EventType:  "health_alert",
		Severity:   "critical",
		Message:    "SMART overall health self-assessment failed.",
		Details:    details,
	}
}

// publishHealthEvent emits an event for devices whose health verdict is a
// known failure. An unknown verdict (the tool reported none) stays quiet.
func publishHealthEvent(nc *nats.Conn, cfg Config, dev *Device, attrs map[string]Attribute) error {
	passed, ok := attrs["smart_passed"]
	if !ok || passed.Value != healthFailed {
		return nil
	}

	event := convertToHealthEvent(cfg, dev, attrs)

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return nc.Publish(cfg.NatsSubject, eventJSON)
}
