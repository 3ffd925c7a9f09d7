package tickets

import "strings"

const defaultChannelTemplate = "ticket-{username}"

// RenderChannelName renders a category's channel-name template. Tokens are
// {fieldId}, {fieldId|fallback} and the literal {username}. The result is
// sanitised to the channel-name charset.
func RenderChannelName(tmpl, username string, form map[string]string) string {
	if tmpl == "" {
		tmpl = defaultChannelTemplate
	}

	var b strings.Builder

	for i := 0; i < len(tmpl); {
		if tmpl[i] != '{' {
			b.WriteByte(tmpl[i])
			i++
			continue
		}

		end := strings.IndexByte(tmpl[i:], '}')

		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}

		token := tmpl[i+1 : i+end]
		i += end + 1

		name, fallback, hasFallback := strings.Cut(token, "|")

		switch {
		case name == "username":
			b.WriteString(username)
		case form[name] != "":
			b.WriteString(form[name])
		case hasFallback:
			b.WriteString(fallback)
		}
	}

	return sanitizeChannelName(b.String())
}

// sanitizeChannelName lowercases and strips everything Discord rejects in a
// channel name, collapsing runs of separators into single dashes.
func sanitizeChannelName(name string) string {
	var b strings.Builder

	lastDash := true // suppress a leading dash

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	out := strings.TrimRight(b.String(), "-")

	if len(out) > 100 {
		out = strings.TrimRight(out[:100], "-")
	}

	if out == "" {
		return "ticket"
	}

	return out
}
