// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

// TransportFamily is the closed set of protocol families a device can be
// queried with. It is resolved once at discovery time and cached on the
// Device; the parser dispatch never re-derives it from the type string.
type TransportFamily int

const (
	FamilySAT TransportFamily = iota
	FamilyNVMe
	FamilySCSI
)

func (f TransportFamily) String() string {
	switch f {
	case FamilySAT:
		return "sat"
	case FamilyNVMe:
		return "nvme"
	default:
		return "scsi"
	}
}

const unknownField = "Unknown"

// megaraidOpenError is the exact open error smartctl reports for the
// virtual disk a MegaRAID controller exposes instead of its physical
// drives. Such entries are unopenable and dropped; the physical drives
// behind them show up as separate megaraid,N scan entries.
const megaraidOpenError = "DELL or MegaRaid controller, please try adding '-d megaraid,N'"

var megaraidTypePattern = regexp.MustCompile(`(sat\+)?(megaraid,\d+)`)

// Device is one discovered drive. For MegaRAID-attached drives the handle
// is the controller-relative megaraid,N selector and BusDevice holds the
// controller bus node actually passed to smartctl.
type Device struct {
	Handle     string
	BusDevice  string
	Type       string
	Family     TransportFamily
	MegaraidID string

	ModelFamily  string
	ModelName    string
	SerialNumber string
	Capacity     string
}

// familyForType maps a scan-reported transport type string to its protocol
// family. The SAT family covers native SATA plus the USB bridge chipsets
// that tunnel ATA commands; the NVMe family covers native NVMe plus the
// vendor tunnel variants.
func familyForType(typ string) TransportFamily {
	switch typ {
	case "sat", "ata", "usbjmicron", "usbprolific", "usbsunplus":
		return FamilySAT
	case "nvme", "sntasmedia", "sntjmicron", "sntrealtek":
		return FamilyNVMe
	case "scsi":
		return FamilySCSI
	default:
		log.Warn().Str("type", typ).Msg("unrecognized transport type, assuming SAT")
		return FamilySAT
	}
}

// megaraidDeviceID extracts the controller-relative megaraid,N selector
// from a scan type string, or "" when the type is not a RAID passthrough.
func megaraidDeviceID(typ string) string {
	m := megaraidTypePattern.FindStringSubmatch(typ)
	if m == nil {
		return ""
	}
	return m[2]
}

// parseScan decodes the scan output and drops the unopenable RAID virtual
// disk entries.
func parseScan(out []byte) ([]SmartCtlScanDevice, error) {
	var scan SmartCtlScanOutput
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, fmt.Errorf("parsing smartctl scan output: %w", err)
	}

	entries := make([]SmartCtlScanDevice, 0, len(scan.Devices))
	for _, entry := range scan.Devices {
		if entry.OpenError == megaraidOpenError {
			log.Debug().Str("device", entry.Name).Msg("skipping unopenable RAID virtual disk")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// deviceFromScanEntry builds the device record for one scan entry. RAID
// passthrough entries get the synthetic megaraid,N handle with the scan
// name kept as the bus device; their family still needs to be probed.
func deviceFromScanEntry(entry SmartCtlScanDevice) *Device {
	if id := megaraidDeviceID(entry.Type); id != "" {
		return &Device{
			Handle:     id,
			BusDevice:  entry.Name,
			Type:       entry.Type,
			MegaraidID: id,
		}
	}
	return &Device{
		Handle: entry.Name,
		Type:   entry.Type,
		Family: familyForType(entry.Type),
	}
}

// familyFromProbe resolves a passthrough device's family from the probe
// result: the controller exposes either an ATA or a SCSI drive behind the
// selector.
func familyFromProbe(result *SmartCtlOutput) TransportFamily {
	if result.Device.Protocol == "ATA" {
		return FamilySAT
	}
	return FamilySCSI
}

// discoverDevices enumerates all SMART-capable devices once at startup.
// A failing or unparseable scan is fatal to the caller: an empty device
// map is not distinguishable from a misconfigured host. Per-device
// identity failures are swallowed with Unknown fallbacks.
func discoverDevices(ctx context.Context, cfg Config) (map[string]*Device, error) {
	out, err := scanDevices(ctx, cfg)
	if err != nil {
		return nil, err
	}

	entries, err := parseScan(out)
	if err != nil {
		return nil, err
	}

	devices := make(map[string]*Device)
	for _, entry := range entries {
		dev := deviceFromScanEntry(entry)
		if dev.MegaraidID != "" {
			dev.Family = resolveMegaraidFamily(ctx, cfg, dev)
		}

		fetchIdentity(ctx, cfg, dev)
		devices[dev.Handle] = dev

		log.Info().
			Str("device", dev.Handle).
			Str("type", dev.Type).
			Str("family", dev.Family.String()).
			Str("model_name", dev.ModelName).
			Str("serial_number", dev.SerialNumber).
			Msg("discovered device")
	}

	return devices, nil
}

// resolveMegaraidFamily probes a passthrough device once to learn what
// sits behind the selector. A failing probe keeps the device with the
// SCSI family; its attribute queries stay empty until the drive answers.
func resolveMegaraidFamily(ctx context.Context, cfg Config, dev *Device) TransportFamily {
	out, _, err := queryAttributes(ctx, cfg, dev)
	if err != nil {
		log.Warn().Err(err).Str("device", dev.Handle).Msg("error probing RAID passthrough device")
		return FamilySCSI
	}

	var result SmartCtlOutput
	if err := json.Unmarshal(out, &result); err != nil {
		log.Warn().Err(err).Str("device", dev.Handle).Msg("error parsing RAID passthrough probe")
		return FamilySCSI
	}

	return familyFromProbe(&result)
}

// applyIdentity fills the static identity fields of a device from an
// identity query result, falling back to the Unknown sentinel per field.
func applyIdentity(dev *Device, result *SmartCtlOutput) {
	dev.ModelFamily = unknownField
	dev.ModelName = unknownField
	dev.SerialNumber = unknownField
	dev.Capacity = unknownField

	if result.ModelFamily != "" {
		dev.ModelFamily = result.ModelFamily
	}
	// smartmontools r5286 and later report SAS drives with a scsi_ prefixed
	// model name field, older versions use the plain one.
	if result.SCSIModelName != "" {
		dev.ModelName = result.SCSIModelName
	} else if result.ModelName != "" {
		dev.ModelName = result.ModelName
	}
	if result.SerialNumber != "" {
		dev.SerialNumber = result.SerialNumber
	}
	if result.UserCapacity != nil {
		dev.Capacity = strconv.FormatInt(result.UserCapacity.Bytes, 10)
	}
}

// fetchIdentity runs the identity query for a device. The fields are
// fetched once and immutable afterwards; any failure leaves them at the
// Unknown sentinel.
func fetchIdentity(ctx context.Context, cfg Config, dev *Device) {
	var result SmartCtlOutput

	out, _, err := queryIdentity(ctx, cfg, dev)
	if err != nil {
		log.Warn().Err(err).Str("device", dev.Handle).Msg("error querying device identity")
	} else if err := json.Unmarshal(out, &result); err != nil {
		log.Warn().Err(err).Str("device", dev.Handle).Msg("error parsing device identity")
		result = SmartCtlOutput{}
	}

	applyIdentity(dev, &result)
}
