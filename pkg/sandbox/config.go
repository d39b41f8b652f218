package sandbox

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PolicyConfig is the on-disk shape of a sandbox policy file.
type PolicyConfig struct {
	AllowedModules []string `yaml:"allowed_modules"`
	RestrictOS     *bool    `yaml:"restrict_os"`
	TimeoutSeconds float64  `yaml:"timeout_seconds"`
}

// DefaultTimeoutSeconds is applied when a policy file omits the timeout.
const DefaultTimeoutSeconds = 5.0

// LoadPolicyConfig reads and validates a YAML policy file.
func LoadPolicyConfig(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading policy file %s", path)
	}
	return ParsePolicyConfig(data)
}

// ParsePolicyConfig decodes a YAML policy document.
func ParsePolicyConfig(data []byte) (*PolicyConfig, error) {
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing policy file")
	}
	if cfg.TimeoutSeconds < 0 {
		return nil, errors.Errorf("timeout_seconds must be non-negative, got %v", cfg.TimeoutSeconds)
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	for _, name := range cfg.AllowedModules {
		if IsOSModule(name) {
			return nil, errors.Errorf("policy allows OS module %q, which the sandbox always denies", name)
		}
	}
	return &cfg, nil
}

// Policy converts the file config into a runtime policy.
func (c *PolicyConfig) Policy() *Policy {
	p := NewPolicy(c.AllowedModules)
	if c.RestrictOS != nil {
		p.RestrictOS = *c.RestrictOS
	}
	return p
}
