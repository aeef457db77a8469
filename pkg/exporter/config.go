// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package exporter

import "time"

type Config struct {
	ListenAddress   string
	ListenPort      int
	Interval        int // in seconds
	SmartctlTimeout time.Duration

	NatsURL     string
	NatsSubject string
	UseNats     bool

	NodeName   string
	InstanceID string
}
