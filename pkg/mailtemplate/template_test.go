package mailtemplate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/wrouesnel/mailpreview/pkg/mailtemplate"
)

const welcome = `---
to: [alice@example.com, team-leaders]
subject: Welcome aboard
campaign: spring
---
Hello {{ .name }},

Your login is {{ .email }}. {{ if .coupon }}Use {{ $.coupon }}!{{ end }}
`

func TestParse_Frontmatter(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("welcome.tmpl", []byte(welcome))
	require.NoError(t, err)

	require.Equal(t, "welcome.tmpl", et.Name)
	require.Equal(t, mailtemplate.Recipients{"alice@example.com", "team-leaders"}, et.Recipients)
	require.Equal(t, "Welcome aboard", et.Subject)
	require.Equal(t, "spring", et.Metadata["campaign"])
	require.Contains(t, et.RawBody, "Hello {{ .name }},")
	require.NotContains(t, et.RawBody, "---")
}

func TestParse_RecipientsAsString(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("t", []byte("---\nto: a@example.com, , b@example.com\n---\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, mailtemplate.Recipients{"a@example.com", "b@example.com"}, et.Recipients)
	require.Equal(t, "body\n", et.RawBody)
}

func TestParse_NoFrontmatter(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("t", []byte("Just {{.body}}\n"))
	require.NoError(t, err)
	require.Empty(t, et.Recipients)
	require.Empty(t, et.Subject)
	require.Empty(t, et.Metadata)
	require.Equal(t, "Just {{.body}}\n", et.RawBody)
}

func TestParse_CRLF(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("t", []byte("---\r\nsubject: Hi\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Hi", et.Subject)
	require.Equal(t, "body\r\n", et.RawBody)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unclosed frontmatter", "---\nsubject: x\nbody", mailtemplate.ErrInvalidFrontmatter},
		{"bad yaml", "---\nsubject: [\n---\nbody", mailtemplate.ErrInvalidFrontmatter},
		{"bad recipients", "---\nto: {a: b}\n---\nbody", mailtemplate.ErrInvalidFrontmatter},
		{"bad body", "Hello {{ .name ", mailtemplate.ErrInvalidBody},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := mailtemplate.Parse("t", []byte(tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("welcome.tmpl", []byte(welcome))
	require.NoError(t, err)
	require.Equal(t, []string{"coupon", "email", "name"}, et.Placeholders())

	plain, err := mailtemplate.Parse("t", []byte("no placeholders here"))
	require.NoError(t, err)
	require.Empty(t, plain.Placeholders())
}

func TestPlaceholders_BlockAndDefine(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("t", []byte(
		`{{ block "greet" . }}Hi {{ .secret }}{{ end }} {{ .name }}{{ define "sig" }}{{ .sender }}{{ end }}`))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "secret", "sender"}, et.Placeholders())
}

func TestRender_MissingValueFails(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("t", []byte("Hello {{ .name }}"))
	require.NoError(t, err)

	_, err = et.Render(map[string]string{})
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	t.Parallel()

	et, err := mailtemplate.Parse("welcome.tmpl", []byte(welcome))
	require.NoError(t, err)

	out, err := et.Render(map[string]string{"name": "Alice", "email": "alice@example.com", "coupon": "SPRING"})
	require.NoError(t, err)
	require.Contains(t, out, "Hello Alice,")
	require.Contains(t, out, "Your login is alice@example.com. Use SPRING!")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "welcome.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(welcome), 0o600))

	et, err := mailtemplate.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Welcome aboard", et.Subject)

	_, err = mailtemplate.Load(filepath.Join(dir, "missing.tmpl"))
	require.ErrorIs(t, err, mailtemplate.ErrTemplateNotFound)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewFSLoader(t *testing.T) {
	t.Parallel()

	load := mailtemplate.NewFSLoader(fstest.MapFS{
		"welcome.tmpl": &fstest.MapFile{Data: []byte(welcome)},
	})

	et, err := load("welcome.tmpl")
	require.NoError(t, err)
	require.Equal(t, "welcome.tmpl", et.Name)

	_, err = load("nope.tmpl")
	require.ErrorIs(t, err, mailtemplate.ErrTemplateNotFound)
	require.ErrorIs(t, err, fs.ErrNotExist)
}
