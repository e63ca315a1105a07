// SPDX-License-Identifier: MPL-2.0

// Package platform centralizes the operating-system differences that affect
// virtual environment layout: the name of the scripts directory and the
// executable suffix.
package platform
