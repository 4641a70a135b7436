package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cperrin88/inkwell/pkg/errutils"
)

// SetValue sets a configuration value by key.
// Supported keys:
//   - api_key, endpoint, all_variants: catalog settings
//   - storage_dir, user_agent, name_cache_backend: storage and network
//   - http_timeout: a Go duration such as 30s
//   - requests_per_second, burst: throttling
//   - output_format, log_level: output
//   - post_acquire, acquire_failed: hook script paths
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "api_key":
		c.Catalog.APIKey = value
	case "endpoint":
		c.Catalog.Endpoint = value
	case "all_variants":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %s", errutils.ErrInvalidBoolValue, key, value)
		}
		c.Catalog.AllVariants = boolVal
	case "storage_dir":
		c.Settings.StorageDir = value
	case "user_agent":
		c.Settings.UserAgent = value
	case "name_cache_backend":
		c.Settings.NameCacheBackend = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return errutils.Wrapf(err, "invalid duration for %s", key)
		}
		c.Settings.HTTPTimeout = d
	case "requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errutils.Wrapf(err, "invalid number for %s", key)
		}
		c.Settings.RequestsPerSecond = f
	case "burst":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errutils.Wrapf(err, "invalid number for %s", key)
		}
		c.Settings.Burst = n
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	case "post_acquire":
		c.Hooks.PostAcquire = value
	case "acquire_failed":
		c.Hooks.AcquireFailed = value
	default:
		return errutils.ErrUnknownConfigKeyWithName(key)
	}
	return nil
}

// GetValue returns the value for key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "api_key":
		return c.Catalog.APIKey, nil
	case "endpoint":
		return c.Catalog.Endpoint, nil
	case "all_variants":
		return strconv.FormatBool(c.Catalog.AllVariants), nil
	case "post_acquire":
		return c.Hooks.PostAcquire, nil
	case "acquire_failed":
		return c.Hooks.AcquireFailed, nil
	}
	if v, ok := c.ToMap()[key]; ok {
		return v, nil
	}
	return "", errutils.ErrUnknownConfigKeyWithName(key)
}

// ToMap flattens the settings into yaml key to string value.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := map[string]string{
		"format_version": c.FormatVersion,
		"endpoint":       c.Catalog.Endpoint,
		"all_variants":   strconv.FormatBool(c.Catalog.AllVariants),
	}
	if c.Catalog.APIKey != "" {
		result["api_key"] = maskSecret(c.Catalog.APIKey)
	}

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "storage_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]
		fieldValue := settingsValue.Field(i)

		var strValue string
		switch fieldValue.Kind() {
		case reflect.Bool:
			strValue = strconv.FormatBool(fieldValue.Bool())
		case reflect.Int64:
			if d, ok := fieldValue.Interface().(time.Duration); ok {
				strValue = d.String()
			} else {
				strValue = strconv.FormatInt(fieldValue.Int(), 10)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			strValue = strconv.FormatInt(fieldValue.Int(), 10)
		case reflect.Float32, reflect.Float64:
			strValue = strconv.FormatFloat(fieldValue.Float(), 'f', -1, 64)
		case reflect.Slice:
			parts := make([]string, fieldValue.Len())
			for j := range parts {
				parts[j] = fmt.Sprint(fieldValue.Index(j).Interface())
			}
			strValue = strings.Join(parts, ",")
		case reflect.String:
			strValue = fieldValue.String()
		default:
			strValue = fmt.Sprintf("%v", fieldValue.Interface())
		}

		result[yamlKey] = strValue
	}

	return result
}

func maskSecret(s string) string {
	const visible = 4
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}
