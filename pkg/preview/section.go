package preview

import (
	"sort"
	"strings"
)

// Section headings, in output order.
const (
	ToHeading           = "To"
	SubjectHeading      = "Subject"
	BodyHeading         = "Body"
	PlaceholdersHeading = "Placeholders"
	RestrictedHeading   = "Restricted to"
	UsedHeading         = "Used"
	ErrorsHeading       = "Errors"
)

const (
	indent    = "    "
	noneValue = "(none)"
)

// Section is one headed block of a preview. A section has either Content or
// Children.
type Section struct {
	Heading  string
	Content  string
	Children []Section
}

// String formats the section with its heading. Every content line is indented
// by four spaces and the result ends with a blank line so sections can be
// concatenated.
func (s Section) String() string {
	content := s.Content
	if len(s.Children) > 0 {
		var b strings.Builder
		for _, child := range s.Children {
			b.WriteString(child.String())
		}
		content = strings.TrimSuffix(b.String(), "\n")
	}
	return formatSection(s.Heading, content)
}

func formatSection(heading string, content string) string {
	return "# " + heading + "\n\n" + indent + strings.Join(splitLines(content), "\n"+indent) + "\n\n"
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// listOrNone joins the sorted values, or returns the none marker when empty.
func listOrNone(values []string) string {
	if len(values) == 0 {
		return noneValue
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

func orNone(value string) string {
	if value == "" {
		return noneValue
	}
	return value
}
