package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// SplitCamel splits a camelCase identifier into lower-case words
func SplitCamel(name string) []string {
	var words []string
	var current []rune
	for i, r := range name {
		if r == '_' || r == ' ' {
			if len(current) > 0 {
				words = append(words, strings.ToLower(string(current)))
				current = current[:0]
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 && len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		words = append(words, strings.ToLower(string(current)))
	}
	return words
}

// HumanizeName turns "jobTitle" into "Job Title"
func HumanizeName(name string) string {
	return titleCaser.String(strings.Join(SplitCamel(name), " "))
}

// ToSnakeCase turns "noteTarget" into "note_target"
func ToSnakeCase(name string) string {
	return strings.Join(SplitCamel(name), "_")
}

// UpperFirst capitalizes the first rune only ("firstName" -> "FirstName")
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
