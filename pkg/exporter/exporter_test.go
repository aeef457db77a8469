// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A MegaRAID controller can hand out both SATA and SAS drives under the
// same passthrough mechanism; the parser must follow the protocol the
// result itself reports, not the scan type string.
func TestParseAttributesMegaraidDispatch(t *testing.T) {
	dev := &Device{
		Handle:     "megaraid,2",
		BusDevice:  "/dev/bus/0",
		Type:       "sat+megaraid,2",
		Family:     FamilySAT,
		MegaraidID: "megaraid,2",
	}

	ataResult := satFixture()
	attrs, err := parseAttributes(nil, ataResult, dev, 0)
	assert.NoError(t, err)
	assert.True(t, attrs["Reallocated_Sector_Ct"].HasCode)

	scsiRaw := []byte(`{
		"device": {"name": "/dev/bus/0", "protocol": "SCSI"},
		"scsi_grown_defect_list": 3,
		"temperature": {"current": 35}
	}`)
	var scsiResult SmartCtlOutput
	assert.NoError(t, json.Unmarshal(scsiRaw, &scsiResult))

	attrs, err = parseAttributes(scsiRaw, &scsiResult, dev, 0)
	assert.NoError(t, err)
	assert.Equal(t, Attribute{Value: 3}, attrs["scsi_grown_defect_list"])
	assert.Equal(t, Attribute{Value: 35}, attrs["temperature_current"])
	assert.False(t, attrs["scsi_grown_defect_list"].HasCode)
}

func TestParseAttributesDirectDispatch(t *testing.T) {
	nvmeDev := &Device{Handle: "/dev/nvme0", Type: "nvme", Family: FamilyNVMe}
	result := &SmartCtlOutput{
		Device:            SmartCtlDevice{Name: "/dev/nvme0", Protocol: "NVMe"},
		SmartStatus:       &SmartCtlSmartStatus{Passed: boolPtr(true)},
		NVMeHealthInfoLog: json.RawMessage(`{"temperature": 36}`),
	}

	attrs, err := parseAttributes(nil, result, nvmeDev, 0)
	assert.NoError(t, err)
	assert.Equal(t, Attribute{Value: 36}, attrs["temperature"])

	// A SAT device with a protocol-mismatched result fails for this
	// device only
	satDev := &Device{Handle: "/dev/sda", Type: "sat", Family: FamilySAT}
	_, err = parseAttributes(nil, &SmartCtlOutput{}, satDev, 0)
	assert.Error(t, err)
}
