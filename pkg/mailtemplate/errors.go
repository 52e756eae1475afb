package mailtemplate

import "errors"

var (
	// ErrTemplateNotFound indicates the template file could not be read.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidFrontmatter indicates invalid YAML front matter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrInvalidBody indicates the template body could not be parsed.
	ErrInvalidBody = errors.New("invalid template body")
)
