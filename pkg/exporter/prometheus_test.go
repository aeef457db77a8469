// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "seek_error_rate_value_x", normalizeName("Seek_Error-Rate.Value/X"))
	assert.Equal(t, "reallocated_sector_ct", normalizeName("Reallocated_Sector_Ct"))
	assert.Equal(t, "current_drive_temperature", normalizeName("Current Drive Temperature"))
	assert.Equal(t, "critical_warning", normalizeName("critical_warning"))
}

func testDevice(handle, typ string) *Device {
	return &Device{
		Handle:       handle,
		Type:         typ,
		ModelFamily:  "Unknown",
		ModelName:    "TESTDRIVE 2000",
		SerialNumber: "S3Z9NB0K",
		Capacity:     "10000831348736",
	}
}

func TestRegistryFirstRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	dev := testDevice("/dev/sda", "sat")

	registry.Update("Reallocated_Sector_Ct", Attribute{Code: 5, Value: 100, HasCode: true}, dev.promLabels())
	registry.Update("Reallocated_Sector_Ct", Attribute{Code: 42, Value: 90, HasCode: true}, dev.promLabels())

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 1)

	family := families[0]
	assert.Equal(t, "smartmon_reallocated_sector_ct", family.GetName())
	assert.Equal(t, "(0x05) Reallocated Sector Ct", family.GetHelp())

	// Only the value changed on the second sighting
	assert.Len(t, family.GetMetric(), 1)
	assert.Equal(t, float64(90), family.GetMetric()[0].GetGauge().GetValue())
}

func TestHexCode(t *testing.T) {
	assert.Equal(t, "0x05", hexCode(5))
	assert.Equal(t, "0xc2", hexCode(194))
	assert.Equal(t, "0x00", hexCode(0))
	assert.Equal(t, "-0x01", hexCode(-1))
}

// A code-less attribute with a negative value reuses that value as the
// help code hint; the rendering must keep the sign outside the hex prefix.
func TestRegistryNegativeCodeHint(t *testing.T) {
	registry := NewRegistry()
	dev := testDevice("/dev/nvme0", "nvme")

	registry.Update("smart_passed", Attribute{Value: healthUnknown}, dev.promLabels())

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 1)
	assert.Equal(t, "(-0x01) smart passed", families[0].GetHelp())
}

func TestRegistryGrowsAcrossNames(t *testing.T) {
	registry := NewRegistry()
	dev := testDevice("/dev/sda", "sat")

	registry.Update("Power_On_Hours", Attribute{Code: 9, Value: 78, HasCode: true}, dev.promLabels())
	registry.Update("Power_On_Hours_raw", Attribute{Code: 9, Value: 20071, HasCode: true}, dev.promLabels())

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 2)
}

// One SAT drive and one NVMe drive go through a full parse and registry
// update; the registry must end up with correctly labeled series for
// both, with table codes in the SAT descriptions.
func TestCollectionUpdatesRegistry(t *testing.T) {
	registry := NewRegistry()

	sat := testDevice("/dev/sda", "sat")
	nvme := testDevice("/dev/nvme0", "nvme")
	nvme.ModelName = "TESTFLASH 970"

	satAttrs, err := parseSAT(satFixture(), 0)
	assert.NoError(t, err)

	nvmeResult := &SmartCtlOutput{
		Device:            SmartCtlDevice{Name: "/dev/nvme0", Protocol: "NVMe"},
		SmartStatus:       &SmartCtlSmartStatus{Passed: boolPtr(true)},
		NVMeHealthInfoLog: json.RawMessage(`{"critical_warning": 0, "temperature": 36}`),
	}
	nvmeAttrs, err := parseNVMe(nvmeResult, 0)
	assert.NoError(t, err)

	for name, attr := range satAttrs {
		registry.Update(name, attr, sat.promLabels())
	}
	for name, attr := range nvmeAttrs {
		registry.Update(name, attr, nvme.promLabels())
	}

	families, err := registry.Gather()
	assert.NoError(t, err)

	byName := make(map[string]string)
	drives := make(map[string][]string)
	for _, family := range families {
		byName[family.GetName()] = family.GetHelp()
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "drive" {
					drives[family.GetName()] = append(drives[family.GetName()], label.GetValue())
				}
			}
		}
	}

	// SAT-origin series carry the attribute code in the description
	assert.Equal(t, "(0x05) Reallocated Sector Ct", byName["smartmon_reallocated_sector_ct"])
	assert.Equal(t, "(0xc2) Temperature Celsius", byName["smartmon_temperature_celsius"])
	assert.Contains(t, byName, "smartmon_critical_warning")

	assert.Equal(t, []string{"/dev/sda"}, drives["smartmon_reallocated_sector_ct"])
	assert.Equal(t, []string{"/dev/nvme0"}, drives["smartmon_critical_warning"])

	// smart_passed was reported by both devices under one shared series
	assert.ElementsMatch(t, []string{"/dev/sda", "/dev/nvme0"}, drives["smartmon_smart_passed"])
}
