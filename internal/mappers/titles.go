package mappers

import "strings"

// TrackingTitle builds the human readable title used to find entries in the
// CMS: "8.286 - The Early Universe". The department number is only prepended
// when the course number does not already start with it.
func TrackingTitle(departmentNumber, courseNumber, title string) string {
	dep := strings.TrimSpace(departmentNumber)
	num := strings.TrimSpace(courseNumber)
	title = strings.TrimSpace(title)

	prefix := num
	switch {
	case num == "":
		prefix = dep
	case dep != "" && !strings.HasPrefix(num, dep+"."):
		prefix = dep + "." + num
	}

	switch {
	case prefix == "":
		return title
	case title == "":
		return prefix
	}
	return prefix + " - " + title
}

// SplitFaculty splits an OCW faculty listing "<Title>. <Name>" on the first
// period. Without a period, or with nothing after it, the whole string is the
// name and the title is empty.
func SplitFaculty(s string) (title, name string) {
	s = strings.TrimSpace(s)
	i := strings.Index(s, ".")
	if i < 0 {
		return "", s
	}
	title = strings.TrimSpace(s[:i])
	name = strings.TrimSpace(s[i+1:])
	if name == "" {
		return "", strings.TrimSpace(strings.TrimSuffix(s, "."))
	}
	return title, name
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
