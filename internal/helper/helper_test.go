package helper

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrettyPrint(&buf, map[string]string{"id": "abc"}))
	assert.Equal(t, "{\n  \"id\": \"abc\"\n}\n", buf.String())
}

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("**Supervised** learning\nuses labels.")
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>Supervised</strong> learning<br>\nuses labels.</p>", out)

	out, err = MarkdownToHTML("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}
