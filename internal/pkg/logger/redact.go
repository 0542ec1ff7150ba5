package logger

import "strings"

// secretKeys are field-name fragments whose values must never appear in logs.
var secretKeys = []string{"api_key", "apikey", "token", "secret", "password", "authorization"}

// maxPromptLen bounds how much of a generation prompt is logged. Prompts can
// carry campaign strategy text that doesn't belong in log aggregation.
const maxPromptLen = 120

// redactValue masks secrets and truncates prompt-like fields.
func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(lower, k) {
			return RedactSecret(val)
		}
	}
	if strings.Contains(lower, "prompt") && len(val) > maxPromptLen {
		return val[:maxPromptLen] + "...(truncated)"
	}
	return val
}

// RedactSecret masks a credential for safe logging, keeping a short prefix
// so operators can tell which key was in play.
// "sk-ant-abc123def456" → "sk-a***"
func RedactSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
