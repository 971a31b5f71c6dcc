// Package utils provides small helpers shared across tinydnsproxy packages:
// resolving config-relative paths and closing resources without losing errors.
package utils
