// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceStatusValid(t *testing.T) {
	for _, s := range []InvoiceStatus{
		InvoiceStatusGenerated, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusDraft,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, InvoiceStatus("cancelled").Valid())
	assert.False(t, InvoiceStatus("").Valid())
}

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: rounding unit 7 not in {5,10,15,30,60}", ErrValidation)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestTimeEntryOptionalFieldsOmitted(t *testing.T) {
	data, err := json.Marshal(TimeEntry{ID: "e1", Description: "work"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, absent := range []string{"client_id", "project_id", "task_id", "end_time",
		"duration_minutes", "invoice_id", "accumulated_seconds"} {
		assert.NotContains(t, m, absent)
	}
	assert.Contains(t, m, "is_active")
	assert.Contains(t, m, "is_invoiced")
}
