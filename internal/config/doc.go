// Package config loads the chemcurate TOML configuration.
//
// Values start from Default, are overlaid by the file when it exists, then
// normalised and validated. Command line flags are applied by the caller on
// top of the returned Config.
package config
