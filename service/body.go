package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bugrelay/bugrelay/model"
)

// buildIssueBody renders a submission into the issue body. Section
// order is fixed: submitter, description, screenshot, technical
// details, attribution footer.
func buildIssueBody(sub *model.Submission, screenshotURL string) string {
	var b strings.Builder

	if sub.Submitter != nil && (sub.Submitter.Name != "" || sub.Submitter.Email != "") {
		b.WriteString("**Submitted by:** ")
		switch {
		case sub.Submitter.Name != "" && sub.Submitter.Email != "":
			fmt.Fprintf(&b, "%s (%s)", sub.Submitter.Name, sub.Submitter.Email)
		case sub.Submitter.Name != "":
			b.WriteString(sub.Submitter.Name)
		default:
			b.WriteString(sub.Submitter.Email)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## Description\n\n")
	b.WriteString(sub.Description)
	b.WriteString("\n")

	if screenshotURL != "" {
		b.WriteString("\n## Screenshot\n\n")
		fmt.Fprintf(&b, "![Screenshot](%s)\n", screenshotURL)
	}

	b.WriteString("\n<details>\n<summary>Technical details</summary>\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	if page := stripQueryAndFragment(sub.Metadata.URL); page != "" {
		fmt.Fprintf(&b, "| Page | %s |\n", page)
	}
	if sub.Metadata.Viewport.Width > 0 || sub.Metadata.Viewport.Height > 0 {
		viewport := fmt.Sprintf("%d×%d", sub.Metadata.Viewport.Width, sub.Metadata.Viewport.Height)
		if sub.Metadata.DevicePixelRatio > 0 {
			viewport += fmt.Sprintf(" @%gx", sub.Metadata.DevicePixelRatio)
		}
		fmt.Fprintf(&b, "| Viewport | %s |\n", viewport)
	}
	if sub.Metadata.Browser != "" {
		fmt.Fprintf(&b, "| Browser | %s |\n", sub.Metadata.Browser)
	}
	if sub.Metadata.OS != "" {
		fmt.Fprintf(&b, "| OS | %s |\n", sub.Metadata.OS)
	}
	if sub.Metadata.Language != "" {
		fmt.Fprintf(&b, "| Language | %s |\n", sub.Metadata.Language)
	}
	if sub.Metadata.Timestamp != "" {
		fmt.Fprintf(&b, "| Timestamp | %s |\n", sub.Metadata.Timestamp)
	}
	if sub.Metadata.ElementSelector != "" {
		fmt.Fprintf(&b, "| Element | `%s` |\n", sub.Metadata.ElementSelector)
	}
	b.WriteString("\n</details>\n")

	b.WriteString("\n---\n*Reported via the feedback widget*\n")
	return b.String()
}

// stripQueryAndFragment drops the query string and hash from a page
// URL. Query parameters routinely carry tokens and session state that
// have no place in an issue body.
func stripQueryAndFragment(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
