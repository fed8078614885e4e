package profile

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"gopkg.in/yaml.v3"
)

// Load reads a profile from a YAML file. Profiles without an ID get one
// assigned so application dedupe has a stable key.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile: %s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return &p, nil
}

// Validate checks the fields no application can be filled without.
func (p *Profile) Validate() error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.Contact.Email == "" {
		return fmt.Errorf("contact.email is required")
	}
	if p.ResumePath != "" {
		if err := ValidateResume(p.ResumePath); err != nil {
			return err
		}
	}
	return nil
}
