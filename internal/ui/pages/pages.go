// Package pages renders the full HTML documents served by the web server.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/10mm-gms/blueprint/internal/ui"
	"github.com/10mm-gms/blueprint/internal/ui/layout"
)

// Site carries the per-deployment values every page needs.
type Site struct {
	ProductName   string
	AllowedDomain string
	Layout        layout.Config
}

// Document renders a complete HTML document with title and body.
func Document(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := ui.NewWriter(w)
		hw.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.Raw(`<title>`)
		hw.Text(title)
		hw.Raw(`</title><link rel="icon" href="` + layout.DefaultLogoURL + `" type="image/svg+xml"></head><body>`)
		if err := hw.Err(); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		hw.Raw(`</body></html>`)
		return hw.Err()
	})
}

// page wraps content in the site layout and a document titled title.
func page(site Site, title string, content templ.Component) templ.Component {
	cfg := site.Layout
	cfg.Children = content
	return Document(title, layout.Layout(cfg))
}

// subTitle joins a page name and the product name, e.g. "Sign in | Acme".
func subTitle(name, product string) string {
	return name + " | " + product
}

// fragment builds a component from a function that writes through ui.Writer.
func fragment(write func(hw *ui.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := ui.NewWriter(w)
		write(hw)
		return hw.Err()
	})
}

const (
	sectionClass = "container mx-auto max-w-3xl px-4 py-16"
	headingClass = "text-3xl font-bold tracking-tight text-gray-900"
	bodyClass    = "mt-4 text-lg text-gray-600"
	buttonClass  = "inline-flex items-center rounded-md bg-gray-900 px-4 py-2 text-sm font-medium text-white hover:bg-gray-700"
)

// Home renders the landing page. Its document title is the product name.
func Home(site Site) templ.Component {
	return page(site, site.ProductName, fragment(func(hw *ui.Writer) {
		hw.Raw(`<section class="` + sectionClass + `" data-testid="home">`)
		hw.Raw(`<h1 class="` + headingClass + `">Welcome to `)
		hw.Text(site.ProductName)
		hw.Raw(`</h1><p class="` + bodyClass + `">`)
		hw.Text(site.ProductName)
		hw.Raw(` is up and running. Staff can sign in from the header to reach the admin area.</p></section>`)
	}))
}

// NotFound renders the 404 page.
func NotFound(site Site) templ.Component {
	return page(site, subTitle("Not found", site.ProductName), fragment(func(hw *ui.Writer) {
		hw.Raw(`<section class="` + sectionClass + `" data-testid="not-found">`)
		hw.Raw(`<h1 class="` + headingClass + `">Page not found</h1>`)
		hw.Raw(`<p class="` + bodyClass + `">The page you asked for does not exist.</p>`)
		hw.Raw(`<p class="mt-8"><a class="` + buttonClass + `" href="/">Back home</a></p></section>`)
	}))
}
