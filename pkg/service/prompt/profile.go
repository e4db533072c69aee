package prompt

import (
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed templates/default_profile.yml
var defaultProfileYAML []byte

// Profile is the static background block about the consultant being
// evaluated. It is injected into every prompt.
type Profile struct {
	Name       string   `yaml:"name"`
	Headline   string   `yaml:"headline"`
	Background string   `yaml:"background"`
	Skills     []string `yaml:"skills"`
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return goerr.New("profile name is required")
	}
	if p.Background == "" {
		return goerr.New("profile background is required")
	}
	return nil
}

// DefaultProfile returns the embedded profile.
func DefaultProfile() *Profile {
	var p Profile
	// The embedded profile is validated by tests; a parse failure here is a
	// build defect, not a runtime condition.
	if err := yaml.Unmarshal(defaultProfileYAML, &p); err != nil {
		panic("invalid embedded profile: " + err.Error())
	}
	return &p
}

// LoadProfile reads a consultant profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read profile file", goerr.V("path", path))
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile file", goerr.V("path", path))
	}
	if err := p.validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid profile file", goerr.V("path", path))
	}

	return &p, nil
}
