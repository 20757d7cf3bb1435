// Package section parses and rewrites marker-delimited blocks inside a
// configuration text.
//
// A section named "ssl" is the span of lines strictly between two identical
// marker lines:
//
//	    ########SSL########
//	    #**#listen 443 ssl http2;
//	    #**#ssl_certificate /etc/letsencrypt/live/example.com/fullchain.pem;
//	    ########SSL########
//
// Marker lines may be indented; the marker itself is the sentinel, the
// upper-case section name and the sentinel again. Each section must appear
// exactly once, so a text with one marker line or with three or more marker
// lines for the same name is rejected with errors.ErrSectionNotFound.
//
// # Enabled and Disabled Sections
//
// A section is disabled when every interior line carries DisablePrefix after
// its indentation. Blank lines are prefixed too, which keeps Disable and
// Enable exact inverses of each other:
//
//	out, _ := section.Disable(text, "ssl")
//	back, _ := section.Enable(out, "ssl") // back == text
//
// Both operations are idempotent. All functions are pure and return the
// rewritten text; callers persist the result.
package section
