package utils

// Truncate returns a truncated string with "..." if it exceeds maxLen.
// This function is Unicode-safe, counting runes instead of bytes.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateTail keeps the last maxLen runes of s, prefixed with "...".
// Worker stderr ends with the traceback, so the tail is what matters.
func TruncateTail(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[len(runes)-maxLen:])
	}
	return "..." + string(runes[len(runes)-maxLen+3:])
}
