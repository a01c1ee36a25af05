package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/10mm-gms/blueprint/internal/ui/layout"
)

// siteFile is the YAML site configuration. Pointer fields distinguish "not
// set" from an explicit zero value, so each key overrides exactly one setting.
type siteFile struct {
	ProductName         string      `yaml:"product_name"`
	Port                string      `yaml:"port"`
	WebPort             string      `yaml:"web_port"`
	BaseURL             string      `yaml:"base_url"`
	ShutdownGracePeriod string      `yaml:"shutdown_grace_period"`
	Layout              *siteLayout `yaml:"layout"`
}

type siteLayout struct {
	ShowHeader *bool             `yaml:"show_header"`
	LogoURL    *string           `yaml:"logo_url"`
	LogoAlt    *string           `yaml:"logo_alt"`
	LogoHref   *string           `yaml:"logo_href"`
	NavLinks   *[]layout.NavLink `yaml:"nav_links"`
}

// loadSiteFile loads site configuration from a YAML file.
func loadSiteFile(path string) (*siteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var site siteFile
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &site, nil
}

func (s *siteFile) apply(cfg *Config) error {
	if s.ProductName != "" {
		cfg.ProductName = s.ProductName
	}
	if s.Port != "" {
		cfg.Port = s.Port
	}
	if s.WebPort != "" {
		cfg.WebPort = s.WebPort
	}
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	if s.ShutdownGracePeriod != "" {
		d, err := time.ParseDuration(s.ShutdownGracePeriod)
		if err != nil {
			return fmt.Errorf("shutdown_grace_period: invalid duration %q", s.ShutdownGracePeriod)
		}
		cfg.ShutdownGracePeriod = d
	}
	if s.Layout != nil {
		cfg.Layout = cfg.Layout.With(s.Layout.options()...)
	}
	return nil
}

func (l *siteLayout) options() []layout.Option {
	var opts []layout.Option
	if l.ShowHeader != nil {
		opts = append(opts, layout.WithHeader(*l.ShowHeader))
	}
	if l.LogoURL != nil {
		opts = append(opts, layout.WithLogoURL(*l.LogoURL))
	}
	if l.LogoAlt != nil {
		opts = append(opts, layout.WithLogoAlt(*l.LogoAlt))
	}
	if l.LogoHref != nil {
		opts = append(opts, layout.WithLogoHref(*l.LogoHref))
	}
	if l.NavLinks != nil {
		opts = append(opts, layout.WithNavLinks(*l.NavLinks...))
	}
	return opts
}
