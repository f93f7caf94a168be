package common

// This package contains shared utilities and types used across filesum packages.
// It provides path validation, error classification and run metrics.

// Note: Utility types are defined in their respective files.
// Use constructors like common.NewPathUtils() to create instances.
