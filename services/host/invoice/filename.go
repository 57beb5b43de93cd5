// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package invoice

import (
	"fmt"
	"strings"
)

// maxClientNameLen bounds the sanitized client name inside a filename.
const maxClientNameLen = 30

// emptyClientPlaceholder substitutes a client name that sanitizes away
// entirely.
const emptyClientPlaceholder = "Client"

// FilenameOptions control the optional suffix parts of CreateFilename.
type FilenameOptions struct {
	// InvoiceID, when non-empty, is appended after the invoice number.
	InvoiceID string

	// TimestampMillis, when nonzero, is appended last. Callers pass a
	// fixed value when they need deterministic output.
	TimestampMillis int64
}

// CreateFilename composes the export filename
// Invoice-{client}-{number}[-{id}][-{millis}].pdf. The client name is
// sanitized: filesystem-unsafe characters and hyphens removed, whitespace
// runs collapsed to a single underscore, truncated to 30 characters.
// Output is deterministic for identical inputs.
func CreateFilename(clientName, invoiceNumber string, opts FilenameOptions) string {
	client := sanitizeClientName(clientName)

	var b strings.Builder
	b.WriteString("Invoice-")
	b.WriteString(client)
	b.WriteString("-")
	b.WriteString(invoiceNumber)
	if opts.InvoiceID != "" {
		b.WriteString("-")
		b.WriteString(opts.InvoiceID)
	}
	if opts.TimestampMillis != 0 {
		fmt.Fprintf(&b, "-%d", opts.TimestampMillis)
	}
	b.WriteString(".pdf")
	return b.String()
}

func sanitizeClientName(name string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*-`, r):
			// dropped: unsafe on some filesystem, or a hyphen that would
			// collide with the filename's own separators
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			lastWasSpace = true
		default:
			if lastWasSpace && b.Len() > 0 {
				b.WriteRune('_')
			}
			lastWasSpace = false
			b.WriteRune(r)
		}
	}

	out := b.String()
	// Truncate over runes so a multibyte client name cannot be cut
	// mid-sequence into invalid UTF-8.
	if runes := []rune(out); len(runes) > maxClientNameLen {
		out = string(runes[:maxClientNameLen])
	}
	if out == "" {
		return emptyClientPlaceholder
	}
	return out
}
