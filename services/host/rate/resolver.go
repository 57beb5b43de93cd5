// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rate resolves the hourly rate for a time entry.
//
// The precedence is fixed: project override, then client default, then
// none. Both the live total display and the invoice engine must call
// Resolve so the two can never disagree on a price.
package rate

import (
	"math"

	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
)

// Resolution is the outcome of rate resolution. Billable distinguishes
// "no rate configured" from an explicit zero rate: a non-billable entry
// still counts toward hours but contributes nothing to totals, and
// callers use the flag for warnings.
type Resolution struct {
	Rate     float64
	Billable bool

	// Source names where the rate came from: "project", "client", or
	// "none".
	Source string
}

// Resolve maps an entry to its hourly rate. project and client may be nil
// when the entry is unassigned at that level. Tasks never carry rates.
func Resolve(entry *datatypes.TimeEntry, project *datatypes.Project, client *datatypes.Client) Resolution {
	_ = entry // resolution depends only on the ownership chain today
	if project != nil && project.HourlyRate != nil {
		return Resolution{Rate: *project.HourlyRate, Billable: true, Source: "project"}
	}
	if client != nil && client.HourlyRate != nil {
		return Resolution{Rate: *client.HourlyRate, Billable: true, Source: "client"}
	}
	return Resolution{Rate: 0, Billable: false, Source: "none"}
}

// Amount prices a duration in minutes at an hourly rate, rounded to
// cents (half away from zero).
func Amount(durationMinutes int, hourlyRate float64) float64 {
	amount := float64(durationMinutes) / 60.0 * hourlyRate
	return math.Round(amount*100) / 100
}
