package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	require.Equal(t, []string{"short"}, splitMessage("short"))
	require.Equal(t, []string{""}, splitMessage(""))

	exact := strings.Repeat("a", maxMsgLen)
	require.Equal(t, []string{exact}, splitMessage(exact))

	long := strings.Repeat("a", maxMsgLen*2+10)
	chunks := splitMessage(long)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], maxMsgLen)
	require.Len(t, chunks[1], maxMsgLen)
	require.Len(t, chunks[2], 10)
	require.Equal(t, long, strings.Join(chunks, ""))
}

func TestSplitMessageRuneBoundary(t *testing.T) {
	// Emoji straddling the chunk limit must not be torn into invalid bytes.
	text := strings.Repeat("a", maxMsgLen-1) + "🎉🎉🎉"
	chunks := splitMessage(text)

	require.Equal(t, text, strings.Join(chunks, ""))

	for _, chunk := range chunks {
		require.True(t, utf8.ValidString(chunk))
		require.LessOrEqual(t, len(chunk), maxMsgLen)
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 100))

	long := strings.Repeat("ж", 60)
	cut := truncate(long, 100)
	require.True(t, utf8.ValidString(cut))
	require.Equal(t, strings.Repeat("ж", 50)+"...", cut)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "someuser", displayName("someuser"))
	require.Equal(t, "No username", displayName(""))
}
