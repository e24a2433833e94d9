package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Load reads a YAML file into v, substituting ${VAR} references with
// environment values first.
func Load(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", filePath)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").
			WithDetail("path", filePath)
	}

	return nil
}

// Save writes v to a YAML file.
func Save(filePath string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", filePath)
	}

	return nil
}

// LoadDialect reads a dialect profile. Keys missing from the file keep their
// NewDialect defaults. The result is validated.
func LoadDialect(filePath string) (Dialect, error) {
	d := NewDialect()
	if err := Load(filePath, &d); err != nil {
		return Dialect{}, err
	}
	if d.Version == 0 {
		d.Version = DialectVersion
	}
	if d.Version > DialectVersion {
		return Dialect{}, errors.Newf(errors.ErrorTypeConfig, "unsupported dialect version %d", d.Version).
			WithDetail("path", filePath)
	}
	if err := d.Validate(); err != nil {
		return Dialect{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid dialect profile").
			WithDetail("path", filePath)
	}
	return d, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
