// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

const stampPrefix = "blake3:"

// Digest hashes a requirements file together with the install settings that
// shape how it is installed, so changing either invalidates a stamp.
func Digest(content []byte, settings ...string) string {
	h := blake3.New()
	_, _ = h.Write(content)
	for _, s := range settings {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(s)
	}
	return stampPrefix + hex.EncodeToString(h.Sum(nil))
}

// ReadStamp returns the digest recorded by the last successful install, or
// "" when there is none.
func ReadStamp(layout Layout) (string, error) {
	data, err := os.ReadFile(layout.StampFile())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read install stamp: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteStamp records digest as the last successful install.
func WriteStamp(layout Layout, digest string) error {
	if err := os.WriteFile(layout.StampFile(), []byte(digest+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write install stamp: %w", err)
	}
	return nil
}
