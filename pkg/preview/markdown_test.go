package preview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	out, err := renderHTML("**Hello** $NAME\nsee https://example.com\n\n<script>alert(1)</script>\n")
	require.NoError(t, err)

	require.Contains(t, out, "<strong>Hello</strong> $NAME<br>")
	require.Contains(t, out, `href="https://example.com"`)
	require.NotContains(t, out, "<script>")
	require.NotContains(t, out, "raw HTML omitted")
}

func TestSectionString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "# Empty\n\n    \n\n", Section{Heading: "Empty"}.String())
	require.Equal(t, "# Lines\n\n    a\n    b\n\n", Section{Heading: "Lines", Content: "a\r\nb\n"}.String())
}

func TestListOrNone(t *testing.T) {
	t.Parallel()

	require.Equal(t, noneValue, listOrNone(nil))
	require.Equal(t, "a, b, c", listOrNone([]string{"c", "a", "b"}))
}
