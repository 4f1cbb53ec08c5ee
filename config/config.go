package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrRequired is returned when a field tagged `required` has no value.
var ErrRequired = errors.New("required environment variable not set")

// LoadOptions defines options for loading configuration from environment variables.
type LoadOptions struct {
	Prefix string   // Prefix to prepend to environment variable names (default: "BEAVER_")
	Files  []string // .env files to load before reading the environment (default: ".env")
	Debug  bool     // Print resolved variables (secrets are masked)
}

// Load populates a struct from .env files and environment variables using reflection.
//
// The function uses struct field tags to determine environment variable names:
//   - `env:"VAR_NAME"`: Maps the field to the specified environment variable
//   - `env:"VAR_NAME,default:value"`: Provides a default value if env var is not set.
//     Everything after "default:" is the value, so defaults may contain commas.
//   - `env:"VAR_NAME,required"`: Fails with ErrRequired when neither the
//     variable nor a default is present
//
// Environment variable names are prefixed with LoadOptions.Prefix
// (defaults to "BEAVER_"). Variables already present in the process
// environment win over values from .env files.
//
// Example:
//
//	type Config struct {
//	    ClientID string   `env:"LINKEDIN_CLIENT_ID,required"`
//	    Fields   []string `env:"LINKEDIN_FIELDS,default:id,firstName,lastName"`
//	    Timeout  time.Duration `env:"HTTP_TIMEOUT,default:30s"`
//	}
//
//	var cfg Config
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
func Load(cfg interface{}, opts ...LoadOptions) error {
	options := LoadOptions{Prefix: "BEAVER_"}
	if len(opts) > 0 {
		options = opts[0]
	}

	if err := loadDotEnv(options.Files); err != nil {
		return err
	}

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: expected pointer to struct, got %T", cfg)
	}

	v := rv.Elem()
	t := v.Type()
	printDebug := options.Debug || os.Getenv("BEAVER_CONFIG_DEBUG") == "true"

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" || !field.IsExported() {
			continue
		}

		envName, defaultValue, required := parseTag(envTag)
		fullEnvName := options.Prefix + envName

		value, ok := os.LookupEnv(fullEnvName)
		if !ok || value == "" {
			value = defaultValue
		}
		if value == "" && required {
			return fmt.Errorf("%w: %s", ErrRequired, fullEnvName)
		}

		if printDebug {
			fmt.Printf("[BEAVER] %s=%s\n", fullEnvName, mask(envName, value))
		}

		if value != "" {
			if err := setFieldValue(v.Field(i), value); err != nil {
				return fmt.Errorf("config: %s: %w", fullEnvName, err)
			}
		}
	}

	return nil
}

// loadDotEnv loads each file in turn. Missing files are skipped; a file
// that exists but cannot be parsed is an error.
func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// parseTag splits an env tag into its name, default value and required flag.
func parseTag(tag string) (name, defaultValue string, required bool) {
	name, rest, _ := strings.Cut(tag, ",")
	for rest != "" {
		var part string
		if strings.HasPrefix(rest, "default:") {
			defaultValue = strings.TrimPrefix(rest, "default:")
			break
		}
		part, rest, _ = strings.Cut(rest, ",")
		if part == "required" {
			required = true
		}
	}
	return name, defaultValue, required
}

func mask(name, value string) string {
	upper := strings.ToUpper(name)
	if value != "" && (strings.Contains(upper, "SECRET") || strings.Contains(upper, "KEY") || strings.Contains(upper, "PASSWORD")) {
		return "****"
	}
	return value
}

// setFieldValue converts an environment string into the field's type.
//
// Supported types: string, signed integers, bool, time.Duration and
// []string (comma-separated, items trimmed, empty items dropped).
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		items := SplitList(value)
		slice := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			slice.Index(i).SetString(item)
		}
		field.Set(slice)
	default:
		// Skip unsupported field types silently
		return nil
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
