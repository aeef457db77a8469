// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Attribute is one named numeric reading of a device for one collection
// cycle. SAT/ATA attributes additionally carry the small integer attribute
// code from the table; NVMe and SCSI attributes have none.
type Attribute struct {
	Code    int64
	Value   float64
	HasCode bool
}

// Health verdict values shared by all three parsers. -1 distinguishes
// "tool reported no verdict" from "tool reported failure".
const (
	healthPassed  = 1
	healthFailed  = 0
	healthUnknown = -1
)

func healthVerdict(result *SmartCtlOutput) float64 {
	if result.SmartStatus == nil || result.SmartStatus.Passed == nil {
		return healthUnknown
	}
	if *result.SmartStatus.Passed {
		return healthPassed
	}
	return healthFailed
}

var (
	// 20071h+27m+15.375s: an hour counter, only the hour component is kept
	rawHourCounter = regexp.MustCompile(`^(\d+)h\+\d+m\+[\d.]+s`)
	// 43 or 43 (Min/Max 39/46): a bare integer, possibly with auxiliary text
	rawLeadingInt = regexp.MustCompile(`^(\d+)(\s|$)`)
)

// parseRawValue extracts the integer part of an ATA raw value display
// string. Not every raw encoding smartctl can emit is modeled; anything
// unrecognized yields no value.
func parseRawValue(s string) (int64, bool) {
	for _, pattern := range []*regexp.Regexp{rawHourCounter, rawLeadingInt} {
		if m := pattern.FindStringSubmatch(s); m != nil {
			value, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

// parseSAT transforms an ATA SMART attribute table into attributes. Each
// table entry yields its normalized value under the attribute name and,
// when the raw display string parses, the raw value under <name>_raw.
func parseSAT(result *SmartCtlOutput, exitStatus int) (map[string]Attribute, error) {
	if result.ATASMARTAttributes == nil {
		return nil, errors.New("no ata_smart_attributes table in smartctl output")
	}

	attrs := make(map[string]Attribute)
	for _, entry := range result.ATASMARTAttributes.Table {
		attrs[entry.Name] = Attribute{Code: entry.ID, Value: float64(entry.Value), HasCode: true}

		raw, ok := parseRawValue(entry.Raw.String)
		if !ok {
			log.Debug().
				Str("device", result.Device.Name).
				Str("attribute", entry.Name).
				Str("raw", entry.Raw.String).
				Msg("unparseable raw value, skipping")
			continue
		}
		attrs[entry.Name+"_raw"] = Attribute{Code: entry.ID, Value: float64(raw), HasCode: true}
	}

	attrs["smart_passed"] = Attribute{Code: 0, Value: healthVerdict(result), HasCode: true}
	attrs["exit_code"] = Attribute{Code: 0, Value: float64(exitStatus), HasCode: true}
	return attrs, nil
}

// parseNVMe transforms an NVMe health log into attributes. Every scalar
// field is copied under its own name; the temperature_sensors list is
// expanded into temperature_sensor1..N.
func parseNVMe(result *SmartCtlOutput, exitStatus int) (map[string]Attribute, error) {
	if len(result.NVMeHealthInfoLog) == 0 {
		return nil, errors.New("no nvme_smart_health_information_log in smartctl output")
	}

	dec := json.NewDecoder(bytes.NewReader(result.NVMeHealthInfoLog))
	dec.UseNumber()
	var healthLog map[string]interface{}
	if err := dec.Decode(&healthLog); err != nil {
		return nil, fmt.Errorf("parsing nvme health log: %w", err)
	}

	attrs := make(map[string]Attribute)
	for name, value := range healthLog {
		switch v := value.(type) {
		case json.Number:
			if f, err := v.Float64(); err == nil {
				attrs[name] = Attribute{Value: f}
			}
		case []interface{}:
			if name != "temperature_sensors" {
				continue
			}
			for i, sensor := range v {
				n, ok := sensor.(json.Number)
				if !ok {
					continue
				}
				if f, err := n.Float64(); err == nil {
					attrs[fmt.Sprintf("temperature_sensor%d", i+1)] = Attribute{Value: f}
				}
			}
		}
	}

	attrs["smart_passed"] = Attribute{Value: healthVerdict(result)}
	attrs["exit_code"] = Attribute{Value: float64(exitStatus)}
	return attrs, nil
}

// parseSCSI walks the top level of the whole result document: integer
// scalars become attributes directly, nested objects contribute one
// attribute per inner integer scalar named <outer>_<inner>. Strings,
// floats and deeper nesting are ignored.
func parseSCSI(raw []byte, result *SmartCtlOutput, exitStatus int) (map[string]Attribute, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing scsi result: %w", err)
	}

	attrs := make(map[string]Attribute)
	for name, value := range doc {
		switch v := value.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				attrs[name] = Attribute{Value: float64(n)}
			}
		case map[string]interface{}:
			for inner, innerValue := range v {
				n, ok := innerValue.(json.Number)
				if !ok {
					continue
				}
				if i, err := n.Int64(); err == nil {
					attrs[name+"_"+inner] = Attribute{Value: float64(i)}
				}
			}
		}
	}

	attrs["smart_passed"] = Attribute{Value: healthVerdict(result)}
	attrs["exit_code"] = Attribute{Value: float64(exitStatus)}
	return attrs, nil
}
