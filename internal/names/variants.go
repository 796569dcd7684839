// Package names expands a monitored entity into surface forms worth searching for.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"MentionMonitor/internal/domain"
)

// Variants returns the ordered, case-insensitively de-duplicated surface forms
// for the entity. It never searches text itself.
func Variants(e domain.MonitoredEntity, p Profile) []string {
	var out formSet

	full := collapse(e.FullName)
	out.add(full)
	for _, alias := range e.Aliases {
		out.add(collapse(alias))
	}

	// Base forms that already carry an honorific also yield the bare name.
	for _, base := range append([]string{full}, e.Aliases...) {
		if bare, ok := p.stripHonorific(collapse(base)); ok {
			out.add(bare)
		}
	}

	first, middle, last := collapse(e.FirstName), collapse(e.MiddleNames), collapse(e.LastName)
	structured := first != "" && last != ""
	if structured {
		out.add(first + " " + last)
		if middle != "" {
			out.add(first + " " + middle + " " + last)
		}
	}

	var initials []string
	if structured && p.Initials {
		initials = initialsForms(first, middle, last)
		for _, form := range initials {
			out.add(form)
		}
	}

	prefixed := append([]string{full}, initials...)
	if _, hasHonorific := p.stripHonorific(full); !hasHonorific {
		for _, prefix := range p.Prefixes {
			for _, form := range prefixed {
				out.add(prefix + " " + form)
			}
		}
	}

	return out.items
}

// initialsForms builds first-initial + last, first + last-initial and
// first-initial + middle-initials + last, each with and without periods.
func initialsForms(first, middle, last string) []string {
	fi := initial(first)
	li := initial(last)

	forms := []string{
		fi + ". " + last,
		fi + " " + last,
		first + " " + li + ".",
		first + " " + li,
	}

	if middle != "" {
		var dotted, bare []string
		for _, m := range strings.Fields(middle) {
			mi := initial(m)
			dotted = append(dotted, mi+".")
			bare = append(bare, mi)
		}
		forms = append(forms,
			fi+". "+strings.Join(dotted, " ")+" "+last,
			fi+" "+strings.Join(bare, " ")+" "+last,
			first+" "+strings.Join(dotted, " ")+" "+last,
		)
	}
	return forms
}

func initial(word string) string {
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type formSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *formSet) add(form string) {
	if form == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	key := strings.ToLower(form)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, form)
}
