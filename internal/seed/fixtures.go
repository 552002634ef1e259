package seed

import (
	"fmt"
	"os"

	"phora/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixtures describes curated accounts and subs to create before the
// random fill, so demo environments always contain known names to log
// in with.
type Fixtures struct {
	Users []FixtureUser `yaml:"users"`
	Subs  []FixtureSub  `yaml:"subs"`
}

// FixtureUser is one curated account. Password defaults to the seeder
// standard when omitted.
type FixtureUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

// FixtureSub is one curated sub. Founder must name a user from the same
// file.
type FixtureSub struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	Founder string `yaml:"founder"`
}

// LoadFixtures reads and validates a fixtures YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		if u.Name == "" {
			return nil, fmt.Errorf("users[%d]: name is required", i)
		}
		if _, dup := seen[u.Name]; dup {
			return nil, fmt.Errorf("users[%d]: duplicate name %q", i, u.Name)
		}
		seen[u.Name] = struct{}{}
	}
	for i, s := range f.Subs {
		if s.Name == "" {
			return nil, fmt.Errorf("subs[%d]: name is required", i)
		}
		if _, ok := seen[s.Founder]; !ok {
			return nil, fmt.Errorf("subs[%d]: founder %q is not a fixture user", i, s.Founder)
		}
	}
	return &f, nil
}

// ApplyFixtures persists the curated users and subs and returns them so
// the caller can mix them into the random content fill.
func (s *Seeder) ApplyFixtures(f *Fixtures) ([]*models.User, []*models.Sub, error) {
	byName := make(map[string]*models.User, len(f.Users))
	users := make([]*models.User, 0, len(f.Users))
	for _, fu := range f.Users {
		fu := fu
		u, err := s.factory.CreateUser(func(u *models.User) {
			u.Name = fu.Name
			if fu.Email != "" {
				u.Email = fu.Email
			}
			if fu.Password != "" {
				_ = u.SetPassword(fu.Password)
			}
		})
		if err != nil {
			return nil, nil, fmt.Errorf("fixture user %q: %w", fu.Name, err)
		}
		if fu.Admin {
			md := &models.UserMetadata{UID: u.UID, Key: "admin", Value: "1"}
			if err := s.db.Create(md).Error; err != nil {
				return nil, nil, err
			}
		}
		byName[fu.Name] = u
		users = append(users, u)
	}

	subs := make([]*models.Sub, 0, len(f.Subs))
	for _, fs := range f.Subs {
		fs := fs
		sub, err := s.factory.CreateSub(byName[fs.Founder], func(sub *models.Sub) {
			sub.Name = fs.Name
			if fs.Title != "" {
				sub.Title = fs.Title
			}
		})
		if err != nil {
			return nil, nil, fmt.Errorf("fixture sub %q: %w", fs.Name, err)
		}
		subs = append(subs, sub)
	}
	return users, subs, nil
}
