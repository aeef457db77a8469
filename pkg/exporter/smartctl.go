// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func checkSmartctlInstalled() bool {
	_, err := exec.LookPath("smartctl")
	return err == nil
}

// runSmartctl invokes smartctl with the given arguments and returns the
// combined output together with the tool's exit status. A nonzero exit
// status is not an error: smartctl encodes diagnostic conditions in its
// exit bits while still producing valid JSON. Only a failure to run the
// binary, or hitting the configured timeout, is reported as an error.
func runSmartctl(ctx context.Context, cfg Config, args ...string) ([]byte, int, error) {
	if cfg.SmartctlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SmartctlTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "smartctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("smartctl %s: %w", strings.Join(args, " "), ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, exitErr.ExitCode(), nil
		}
		return nil, 0, fmt.Errorf("running smartctl %s: %w", strings.Join(args, " "), err)
	}

	return out, 0, nil
}

// scanDevices runs the scan query that enumerates all SMART-capable devices.
func scanDevices(ctx context.Context, cfg Config) ([]byte, error) {
	out, _, err := runSmartctl(ctx, cfg, "--scan-open", "--json=c")
	return out, err
}

// queryIdentity runs the identity query (static device information) for a
// device, through the RAID controller bus device when a passthrough
// selector is set.
func queryIdentity(ctx context.Context, cfg Config, dev *Device) ([]byte, int, error) {
	args := []string{"-i", "--json=c"}
	if dev.MegaraidID != "" {
		args = append(args, "-d", dev.MegaraidID, dev.BusDevice)
	} else {
		args = append(args, dev.Handle)
	}
	return runSmartctl(ctx, cfg, args...)
}

// queryAttributes runs the attribute and health query for a device. Direct
// devices are queried with their scan-reported transport type, passthrough
// devices through the controller bus device with the megaraid selector.
func queryAttributes(ctx context.Context, cfg Config, dev *Device) ([]byte, int, error) {
	args := []string{"-A", "-H"}
	if dev.MegaraidID != "" {
		args = append(args, "-d", dev.MegaraidID, "--json=c", dev.BusDevice)
	} else {
		args = append(args, "-d", dev.Type, "--json=c", dev.Handle)
	}
	return runSmartctl(ctx, cfg, args...)
}
