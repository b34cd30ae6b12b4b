package ui

import "strings"

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens a string by removing characters from the middle,
// preserving both the beginning and end. For paths, it preserves file extensions.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}

	ellipsis := []rune("…/")
	if limit <= len(ellipsis)+1 {
		return string(runes[:limit])
	}

	if strings.Contains(value, "/") {
		lastDot := strings.LastIndex(value, ".")
		lastSlash := strings.LastIndex(value, "/")
		// Only keep the extension if the dot belongs to the file name.
		if lastDot > lastSlash && lastDot > 0 {
			ext := []rune(value[lastDot:])
			base := []rune(value[:lastDot])
			baseLimit := limit - len(ext) - len(ellipsis)
			if len(ext) < 10 && len(ext) < limit/2 && baseLimit > 0 && len(base) > baseLimit {
				prefix := baseLimit / 2
				suffix := baseLimit - prefix
				return string(base[:prefix]) + string(ellipsis) + string(base[len(base)-suffix:]) + string(ext)
			}
		}
	}

	keep := limit - len(ellipsis)
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + string(ellipsis) + string(runes[len(runes)-suffix:])
}
