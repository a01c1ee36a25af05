// Package layout renders the shared page shell: an optional standardized header
// (logo link plus navigation) above a main region holding the page content.
package layout

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/10mm-gms/blueprint/internal/ui"
)

// HeaderTestID marks the header region for browser tests.
const HeaderTestID = "standardized-header"

// Default values used when a field is not overridden.
const (
	DefaultLogoURL  = "/assets/logo_colour_reverse.svg"
	DefaultLogoAlt  = "Company Logo"
	DefaultLogoHref = "https://github.com/10mm-gms"
)

// NavLink is a single header navigation entry.
type NavLink struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// DefaultNavLinks returns a fresh copy of the default navigation entries.
func DefaultNavLinks() []NavLink {
	return []NavLink{
		{Label: "GitHub", Href: "https://github.com/10mm-gms"},
		{Label: "Login", Href: "/admin/login"},
	}
}

// Config holds everything the page shell needs to render. Build it with New or
// Defaults; the zero value renders without a header and with empty logo fields.
type Config struct {
	Children   templ.Component
	ShowHeader bool
	LogoURL    string
	LogoAlt    string
	LogoHref   string
	NavLinks   []NavLink
	Classes    []string
}

// Defaults returns a Config with every field set to its default value.
func Defaults() Config {
	return Config{
		ShowHeader: true,
		LogoURL:    DefaultLogoURL,
		LogoAlt:    DefaultLogoAlt,
		LogoHref:   DefaultLogoHref,
		NavLinks:   DefaultNavLinks(),
	}
}

// Option modifies a single Config field.
type Option func(*Config)

// WithHeader toggles the header region.
func WithHeader(show bool) Option {
	return func(c *Config) { c.ShowHeader = show }
}

// WithLogoURL sets the logo image source.
func WithLogoURL(url string) Option {
	return func(c *Config) { c.LogoURL = url }
}

// WithLogoAlt sets the logo alt text.
func WithLogoAlt(alt string) Option {
	return func(c *Config) { c.LogoAlt = alt }
}

// WithLogoHref sets the link target wrapping the logo.
func WithLogoHref(href string) Option {
	return func(c *Config) { c.LogoHref = href }
}

// WithNavLinks replaces the navigation entries. The slice is copied.
func WithNavLinks(links ...NavLink) Option {
	return func(c *Config) {
		c.NavLinks = append([]NavLink(nil), links...)
	}
}

// WithClass appends utility classes to the root container.
func WithClass(class string) Option {
	return func(c *Config) { c.Classes = append(c.Classes, class) }
}

// New builds a Config from the defaults, the page content and any overrides.
func New(children templ.Component, opts ...Option) Config {
	c := Defaults()
	c.Children = children
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// With returns a copy of c with the options applied. c itself is left untouched.
func (c Config) With(opts ...Option) Config {
	out := c
	out.NavLinks = append([]NavLink(nil), c.NavLinks...)
	out.Classes = append([]string(nil), c.Classes...)
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

const (
	rootClass      = "layout-root min-h-screen bg-background font-sans text-foreground"
	headerClass    = "bg-white border-b border-gray-200 h-[73px] flex items-center sticky top-0 z-50"
	containerClass = "container mx-auto px-4 flex justify-between items-center max-w-[90%] w-full"
	logoLinkClass  = "transition-opacity hover:opacity-80"
	logoImgClass   = "h-10 w-auto"
	navClass       = "flex items-center gap-6"
	navLinkClass   = "text-sm font-medium text-gray-600 hover:text-gray-900 transition-colors"
)

// Layout renders the page shell for cfg. Output depends only on cfg and what
// its Children render.
func Layout(cfg Config) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := ui.NewWriter(w)

		hw.Raw(`<div class="`)
		hw.Text(ui.CN(append([]string{rootClass}, cfg.Classes...)...))
		hw.Raw(`">`)

		if cfg.ShowHeader {
			renderHeader(hw, cfg)
		}

		hw.Raw(`<main>`)
		if err := hw.Err(); err != nil {
			return err
		}
		if cfg.Children != nil {
			if err := cfg.Children.Render(ctx, w); err != nil {
				return err
			}
		}
		hw.Raw(`</main></div>`)
		return hw.Err()
	})
}

func renderHeader(hw *ui.Writer, cfg Config) {
	hw.Raw(`<header data-testid="` + HeaderTestID + `" class="` + headerClass + `">`)
	hw.Raw(`<div class="` + containerClass + `">`)

	hw.Raw(`<a href="`)
	hw.Text(cfg.LogoHref)
	hw.Raw(`" target="_blank" rel="noopener noreferrer" class="` + logoLinkClass + `">`)
	hw.Raw(`<img src="`)
	hw.Text(cfg.LogoURL)
	hw.Raw(`" alt="`)
	hw.Text(cfg.LogoAlt)
	hw.Raw(`" class="` + logoImgClass + `"></a>`)

	hw.Raw(`<nav class="` + navClass + `">`)
	for i, link := range cfg.NavLinks {
		hw.Raw(`<a href="`)
		hw.Text(link.Href)
		hw.Raw(`" data-nav-index="` + strconv.Itoa(i) + `" class="` + navLinkClass + `">`)
		hw.Text(link.Label)
		hw.Raw(`</a>`)
	}
	hw.Raw(`</nav></div></header>`)
}
