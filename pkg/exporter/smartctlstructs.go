// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import "encoding/json"

// SmartCtlScanOutput represents the root structure of the JSON output from smartctl --scan-open --json=c
type SmartCtlScanOutput struct {
	JSONFormatVersion []int64              `json:"json_format_version"`
	Smartctl          SmartCtlDetails      `json:"smartctl"`
	Devices           []SmartCtlScanDevice `json:"devices"`
}

// SmartCtlScanDevice represents one scan-reported device
type SmartCtlScanDevice struct {
	Name      string `json:"name"`
	InfoName  string `json:"info_name"`
	Type      string `json:"type"`
	Protocol  string `json:"protocol"`
	OpenError string `json:"open_error,omitempty"`
}

// SmartCtlOutput represents the JSON output of the identity and attribute
// queries. The NVMe health log is kept raw: its parser copies every scalar
// field it finds rather than a fixed set, see parseNVMe.
type SmartCtlOutput struct {
	JSONFormatVersion  []int64                     `json:"json_format_version"`
	Smartctl           SmartCtlDetails             `json:"smartctl"`
	Device             SmartCtlDevice              `json:"device"`
	ModelFamily        string                      `json:"model_family,omitempty"`
	ModelName          string                      `json:"model_name,omitempty"`
	SCSIModelName      string                      `json:"scsi_model_name,omitempty"`
	SerialNumber       string                      `json:"serial_number,omitempty"`
	FirmwareVersion    string                      `json:"firmware_version,omitempty"`
	UserCapacity       *SmartCtlUserCapacity       `json:"user_capacity,omitempty"`
	SmartStatus        *SmartCtlSmartStatus        `json:"smart_status,omitempty"`
	ATASMARTAttributes *SmartCtlATASMARTAttributes `json:"ata_smart_attributes,omitempty"`
	NVMeHealthInfoLog  json.RawMessage             `json:"nvme_smart_health_information_log,omitempty"`
}

// SmartCtlDevice represents the device details
type SmartCtlDevice struct {
	InfoName string `json:"info_name"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Type     string `json:"type"`
}

// SmartCtlATASMARTAttributes represents the ATA SMART attribute table
type SmartCtlATASMARTAttributes struct {
	Revision int64                   `json:"revision"`
	Table    []SmartCtlATASMARTEntry `json:"table"`
}

// SmartCtlATASMARTEntry represents a single ATA SMART attribute entry
type SmartCtlATASMARTEntry struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Value      int64               `json:"value"`
	Worst      int64               `json:"worst"`
	Thresh     int64               `json:"thresh"`
	WhenFailed string              `json:"when_failed,omitempty"`
	Raw        SmartCtlATASMARTRaw `json:"raw"`
}

// SmartCtlATASMARTRaw represents the raw value for a single ATA SMART attribute entry
type SmartCtlATASMARTRaw struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// SmartCtlSmartStatus represents the overall SMART health verdict. An
// absent object, or an object without the passed field, means the tool
// reported no verdict at all.
type SmartCtlSmartStatus struct {
	Passed *bool `json:"passed,omitempty"`
}

// SmartCtlUserCapacity represents the user capacity of the device
type SmartCtlUserCapacity struct {
	Blocks int64 `json:"blocks"`
	Bytes  int64 `json:"bytes"`
}

// SmartCtlDetails represents the details about the smartctl command used
type SmartCtlDetails struct {
	Argv         []string `json:"argv"`
	BuildInfo    string   `json:"build_info"`
	ExitStatus   int64    `json:"exit_status"`
	PlatformInfo string   `json:"platform_info"`
	SvnRevision  string   `json:"svn_revision"`
	Version      []int64  `json:"version"`
}
