package pages

import (
	"time"

	"github.com/a-h/templ"

	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/ui"
)

// Sign-in error codes carried in the ?error= query parameter.
const (
	ErrorNotStaff      = "not_staff"
	ErrorInvalidState  = "invalid_state"
	ErrorOAuthFailed   = "oauth_failed"
	ErrorNotConfigured = "not_configured"
)

// LoginMessage returns the banner text for a sign-in error code, or "" for
// no error.
func LoginMessage(code, allowedDomain string) string {
	switch code {
	case "":
		return ""
	case ErrorNotStaff:
		return "Only @" + allowedDomain + " staff accounts can sign in."
	case ErrorInvalidState:
		return "Your sign-in session expired. Please try again."
	case ErrorNotConfigured:
		return "Google sign-in is not configured for this deployment."
	default:
		return "Sign-in failed. Please try again."
	}
}

// AdminLogin renders the staff sign-in page. googleEnabled hides the sign-in
// button when no OAuth client is configured.
func AdminLogin(site Site, errorCode string, googleEnabled bool) templ.Component {
	return page(site, subTitle("Sign in", site.ProductName), fragment(func(hw *ui.Writer) {
		hw.Raw(`<section class="` + sectionClass + `" data-testid="admin-login">`)
		hw.Raw(`<h1 class="` + headingClass + `">Staff sign in</h1>`)

		if msg := LoginMessage(errorCode, site.AllowedDomain); msg != "" {
			hw.Raw(`<div role="alert" data-testid="login-error" data-error-code="`)
			hw.Text(errorCode)
			hw.Raw(`" class="mt-6 rounded-md border border-red-200 bg-red-50 p-4 text-sm text-red-700">`)
			hw.Text(msg)
			hw.Raw(`</div>`)
		}

		hw.Raw(`<p class="` + bodyClass + `">Use your @`)
		hw.Text(site.AllowedDomain)
		hw.Raw(` Google account.</p>`)
		if googleEnabled {
			hw.Raw(`<p class="mt-8"><a class="` + buttonClass + `" href="/auth/google" data-testid="google-sign-in">Sign in with Google</a></p>`)
		}
		hw.Raw(`</section>`)
	}))
}

// AdminDashboard renders the signed-in staff member's landing page.
func AdminDashboard(site Site, session *auth.SessionData) templ.Component {
	return page(site, subTitle("Admin", site.ProductName), fragment(func(hw *ui.Writer) {
		hw.Raw(`<section class="` + sectionClass + `" data-testid="admin-dashboard">`)
		hw.Raw(`<h1 class="` + headingClass + `">Hello, `)
		hw.Text(displayName(session))
		hw.Raw(`</h1>`)

		hw.Raw(`<div class="mt-6 flex items-center gap-4">`)
		if session.AvatarURL != "" {
			hw.Raw(`<img class="h-12 w-12 rounded-full" alt="" src="`)
			hw.Text(session.AvatarURL)
			hw.Raw(`">`)
		}
		hw.Raw(`<dl class="text-sm text-gray-600"><dt class="font-medium">Email</dt><dd data-testid="staff-email">`)
		hw.Text(session.Email)
		hw.Raw(`</dd><dt class="font-medium">Session expires</dt><dd>`)
		hw.Text(session.ExpiresAt.UTC().Format(time.RFC1123))
		hw.Raw(`</dd></dl></div>`)

		hw.Raw(`<div class="mt-8 flex gap-4">`)
		hw.Raw(`<form method="post" action="/admin/token"><button type="submit" class="` + buttonClass + `">Issue API token</button></form>`)
		hw.Raw(`<a class="text-sm font-medium text-gray-600 hover:text-gray-900 self-center" href="/admin/logout">Sign out</a>`)
		hw.Raw(`</div></section>`)
	}))
}

func displayName(session *auth.SessionData) string {
	if session.Name != "" {
		return session.Name
	}
	return session.Email
}
