// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/cobaltcore-dev/smartmon/pkg/commands"
)

func main() {
	commands.Execute()
}
