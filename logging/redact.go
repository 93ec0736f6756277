/*
Copyright © 2026 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package logging

import (
	"regexp"
	"strings"
)

// sensitiveKeyPatterns are substrings that mark a configuration key as
// carrying credential material. AWS secret access keys and session tokens
// are the main concern when the effective configuration is dumped at debug
// level.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"secret_access_key",
	"secretaccesskey",
	"secret-access-key",
	"session_token",
	"sessiontoken",
	"session-token",
	"private_key",
	"privatekey",
	"private-key",
}

// sensitiveValuePattern matches common key=value credential patterns
// embedded in free-form strings.
var sensitiveValuePattern = regexp.MustCompile(`(?i)(password|token|secret|credential|secret_access_key)=\S+`)

// IsSensitiveKey returns true if the key name matches known sensitive patterns.
// The check is case-insensitive.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lowerKey, pattern) {
			return true
		}
	}
	return false
}

// RedactSensitiveValue returns a redacted version of the value if the key
// is sensitive, otherwise returns the original value.
func RedactSensitiveValue(key, value string) string {
	if IsSensitiveKey(key) {
		return "***"
	}
	return value
}

// RedactSensitivePatterns redacts known sensitive patterns from a string.
// For example: "session_token=abc123" -> "session_token=***"
func RedactSensitivePatterns(input string) string {
	return sensitiveValuePattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := strings.SplitN(match, "=", 2)
		if len(parts) == 2 {
			return parts[0] + "=***"
		}
		return match
	})
}
