// internal/service/template_service.go
package service

import (
	"strings"
)

// RenderTemplate substitutes {placeholder} tokens with recipient values.
// Empty values render as <unknown> so a half-filled profile still sends.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
