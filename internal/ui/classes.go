// Package ui holds helpers shared by the server-rendered components.
package ui

import "strings"

// CN merges class lists, dropping exact duplicates while keeping first-seen order.
func CN(inputs ...string) string {
	var classes []string
	seen := make(map[string]bool)

	for _, input := range inputs {
		for _, part := range strings.Fields(input) {
			if !seen[part] {
				classes = append(classes, part)
				seen[part] = true
			}
		}
	}
	return strings.Join(classes, " ")
}
