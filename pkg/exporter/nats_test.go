// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishHealthEventGating(t *testing.T) {
	cfg := Config{NodeName: "node1", InstanceID: "i-1", NatsSubject: "smartmon.disk.health"}
	dev := testDevice("/dev/sda", "sat")

	// Passed and unknown verdicts publish nothing; with no connection in
	// the test this would panic if the gate were wrong.
	err := publishHealthEvent(nil, cfg, dev, map[string]Attribute{
		"smart_passed": {Value: healthPassed},
	})
	assert.NoError(t, err)

	err = publishHealthEvent(nil, cfg, dev, map[string]Attribute{
		"smart_passed": {Value: healthUnknown},
	})
	assert.NoError(t, err)

	err = publishHealthEvent(nil, cfg, dev, map[string]Attribute{})
	assert.NoError(t, err)
}

func TestConvertToHealthEvent(t *testing.T) {
	cfg := Config{NodeName: "node1", InstanceID: "i-1"}
	dev := testDevice("/dev/sda", "sat")

	attrs := map[string]Attribute{
		"smart_passed":          {Value: healthFailed},
		"Reallocated_Sector_Ct": {Code: 5, Value: 100, HasCode: true},
	}

	event := convertToHealthEvent(cfg, dev, attrs)

	assert.Equal(t, "node1", event.NodeName)
	assert.Equal(t, "i-1", event.InstanceID)
	assert.Equal(t, "/dev/sda", event.Device)
	assert.Equal(t, "health_alert", event.EventType)
	assert.Equal(t, "critical", event.Severity)
	assert.Equal(t, "100", event.Details["Reallocated_Sector_Ct"])
	assert.Equal(t, "TESTDRIVE 2000", event.Details["model_name"])
}
