package utils

// Stringp returns a pointer to the given string, for discordgo edit payloads.
func Stringp(s string) *string {
	return &s
}
