package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/dspm-console/internal/domain/credentials"
)

// Input validation and sanitization utilities for console requests.

// ValidateVendor checks the vendor against the field schema registry.
func ValidateVendor(vendor string) error {
	for _, v := range credentials.Vendors() {
		if string(v) == strings.ToLower(vendor) {
			return nil
		}
	}
	return fmt.Errorf("invalid vendor: %s (allowed: aws, gcp, azure)", vendor)
}

// ValidateDatastore checks that the datastore belongs to the vendor.
func ValidateDatastore(vendor, datastore string) error {
	for _, ds := range credentials.Datastores(credentials.Vendor(strings.ToLower(vendor))) {
		if string(ds) == strings.ToLower(datastore) {
			return nil
		}
	}
	return fmt.Errorf("invalid datastore %q for vendor %q", datastore, vendor)
}

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// ValidateBucketName enforces S3-style bucket naming (3-63 chars, lowercase
// alphanumerics, dots and dashes, no leading/trailing separator).
func ValidateBucketName(name string) error {
	if name == "" {
		return fmt.Errorf("bucket name cannot be empty")
	}
	if !bucketNamePattern.MatchString(name) {
		return fmt.Errorf("invalid bucket name format")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid bucket name format")
	}
	return nil
}

// ValidateFiletype restricts data generation to the supported artifact types.
func ValidateFiletype(filetype string) error {
	switch strings.ToLower(filetype) {
	case "json", "pdf", "csv":
		return nil
	}
	return fmt.Errorf("invalid filetype: %s (allowed: json, pdf, csv)", filetype)
}

// ValidateProbe performs a shallow sanity check on a probe template. Probes
// are opaque to the console, but control characters never belong in one.
func ValidateProbe(probe string) error {
	if strings.TrimSpace(probe) == "" {
		return fmt.Errorf("probe cannot be empty")
	}
	for _, r := range probe {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return fmt.Errorf("probe contains control characters")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
