package mailtemplate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// Recipients is the list of addresses or group names a template is sent to. In
// front matter it may be written as a YAML list or a comma separated string.
type Recipients []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Recipients) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*r = splitRecipients(raw)
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*r = lo.Filter(lo.Map(raw, func(s string, _ int) string { return strings.TrimSpace(s) }),
			func(s string, _ int) bool { return s != "" })
		return nil
	default:
		return fmt.Errorf("line %d: recipients must be a string or a list of strings", value.Line)
	}
}

func splitRecipients(raw string) Recipients {
	parts := strings.Split(raw, ",")
	result := make(Recipients, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

type frontmatter struct {
	To      Recipients `yaml:"to"`
	Subject string     `yaml:"subject"`
}

// EmailTemplate is a parsed email template: its recipients and subject from the
// front matter and a text/template body.
type EmailTemplate struct {
	Name       string
	Recipients Recipients
	Subject    string
	// Metadata holds every front matter key, including to and subject.
	Metadata map[string]any
	RawBody  string

	body *template.Template
}

// Parse parses template content. name is only used in diagnostics.
func Parse(name string, content []byte) (*EmailTemplate, error) {
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFrontmatter, name, err)
	}

	et := &EmailTemplate{
		Name:     name,
		Metadata: make(map[string]any),
		RawBody:  string(body),
	}

	if len(bytes.TrimSpace(meta)) > 0 {
		if err := yaml.Unmarshal(meta, &et.Metadata); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFrontmatter, name, err)
		}
		var fm frontmatter
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFrontmatter, name, err)
		}
		et.Recipients = fm.To
		et.Subject = strings.TrimSpace(fm.Subject)
	}

	et.body, err = template.New(name).Option("missingkey=error").Parse(et.RawBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return et, nil
}

// splitFrontmatter separates an optional leading "---" delimited block from the
// body. Content without an opening delimiter is all body.
func splitFrontmatter(content []byte) ([]byte, []byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Split(scanLinesKeepEnds)

	if !scanner.Scan() || strings.TrimRight(scanner.Text(), "\r\n") != frontmatterDelimiter {
		return nil, content, nil
	}
	offset := len(scanner.Bytes())

	var meta bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()
		offset += len(line)
		if strings.TrimRight(string(line), "\r\n") == frontmatterDelimiter {
			return meta.Bytes(), content[offset:], nil
		}
		meta.Write(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return nil, nil, errors.New("closing delimiter not found")
}

func scanLinesKeepEnds(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Placeholders returns the sorted names of the placeholders the body refers to.
// A placeholder is the first field of a {{ .name }} or {{ $.name }} reference.
func (et *EmailTemplate) Placeholders() []string {
	found := map[string]struct{}{}
	if et.body != nil {
		// block and define bodies are separate trees
		for _, t := range et.body.Templates() {
			if t.Tree != nil {
				walk(t.Tree.Root, found)
			}
		}
	}
	keys := lo.Keys(found)
	sort.Strings(keys)
	return keys
}

// Render executes the body with the given placeholder values.
func (et *EmailTemplate) Render(values map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := et.body.Execute(&buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

//nolint:cyclop
func walk(node parse.Node, found map[string]struct{}) {
	switch n := node.(type) {
	case nil:
		return
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walk(child, found)
		}
	case *parse.ActionNode:
		walk(n.Pipe, found)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			walk(cmd, found)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			walk(arg, found)
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			found[n.Ident[0]] = struct{}{}
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			found[n.Ident[1]] = struct{}{}
		}
	case *parse.ChainNode:
		walk(n.Node, found)
	case *parse.IfNode:
		walkBranch(&n.BranchNode, found)
	case *parse.RangeNode:
		walkBranch(&n.BranchNode, found)
	case *parse.WithNode:
		walkBranch(&n.BranchNode, found)
	case *parse.TemplateNode:
		walk(n.Pipe, found)
	}
}

func walkBranch(n *parse.BranchNode, found map[string]struct{}) {
	walk(n.Pipe, found)
	walk(n.List, found)
	walk(n.ElseList, found)
}

// Load reads and parses the template file at path.
func Load(path string) (*EmailTemplate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, path, err)
	}
	return Parse(path, content)
}

// NewFSLoader returns a loader reading template files from fsys.
func NewFSLoader(fsys fs.FS) func(name string) (*EmailTemplate, error) {
	return func(name string) (*EmailTemplate, error) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, name, err)
		}
		return Parse(name, content)
	}
}
