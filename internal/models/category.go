// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is a managed catalog category name.
type Category struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultCategories are installed by the initial migrations.
var DefaultCategories = []string{"Fiscal", "Contabilidad", "Finanzas", "Legal"}
