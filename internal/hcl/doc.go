// Package hcl loads application settings from HCL files.
//
// Expressions may use env.NAME to read environment variables and a small set
// of string functions (upper, lower, join, format, trimspace).
package hcl
