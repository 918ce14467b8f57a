// Package config holds helpers for reading favmerge configuration.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(v *viper.Viper, key string) string {
	osValue := os.Getenv(key)
	viperValue := v.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetStringOrDefault returns GetString, or defaultValue when the key is unset.
func GetStringOrDefault(v *viper.Viper, key, defaultValue string) string {
	if value := GetString(v, key); value != "" {
		return value
	}
	return defaultValue
}
