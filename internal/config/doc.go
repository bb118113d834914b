// Package config loads, normalizes, and validates mangafixer configuration.
//
// Settings come from three layers: repository defaults, an optional TOML
// file, and the environment. MANGA_DIR and DATA_DIR (optionally sourced from a
// .env file in the working directory) override whatever the file says, which
// keeps container deployments free of config files entirely.
//
// Always obtain settings through Load so downstream code receives absolute
// paths, canonical log formats, and clear validation errors.
package config
