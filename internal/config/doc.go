// Package config defines the format-agnostic settings model for the
// application and the Loader interface implemented by concrete formats.
//
// Settings is the single source of truth for the app package. The HCL
// implementation lives in internal/hcl; command-line flags are applied on
// top of loaded settings through Overrides.
package config
