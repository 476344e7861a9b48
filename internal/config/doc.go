// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// An optional .env file can be loaded into the environment before expansion so
// credentials stay out of the YAML file.
package config
