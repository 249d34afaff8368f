// Package config loads audiopen configuration.
//
// Values come from a YAML file (config.yml in the working directory, ./config,
// cmd/<app> or the user config directory), then a .env file, then environment
// variables. With WithEnvPrefix("AUDIOPEN") the variable
// AUDIOPEN_STORAGE_BUCKET sets storage.bucket.
package config
