package subtitle

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jon4hz/subgen/internal/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	segments := []transcribe.Segment{
		{Index: 0, Text: "Hello there."},
		{Index: 1, Text: "  "},
		{Index: 2, Text: " General Kenobi! "},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, segments, 5))

	expected := "1\n00:00:00,000 --> 00:00:05,000\nHello there.\n\n" +
		"2\n00:00:10,000 --> 00:00:15,000\nGeneral Kenobi!\n\n"
	assert.Equal(t, expected, buf.String())
}

func TestEncode_ChunkSizeDrivesTiming(t *testing.T) {
	segments := []transcribe.Segment{{Index: 1, Text: "x"}}

	var five, ten bytes.Buffer
	require.NoError(t, Encode(&five, segments, 5))
	require.NoError(t, Encode(&ten, segments, 10))

	assert.Contains(t, five.String(), "00:00:05,000 --> 00:00:10,000")
	assert.Contains(t, ten.String(), "00:00:10,000 --> 00:00:20,000")
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "clip.srt")

	require.NoError(t, WriteSRT(path, []transcribe.Segment{{Index: 0, Text: "hola"}}, 5))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:05,000\nhola\n\n", string(data))
}

func TestWriteSRT_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.srt")

	require.NoError(t, WriteSRT(path, []transcribe.Segment{{Index: 0, Text: "first"}}, 5))
	require.NoError(t, WriteSRT(path, []transcribe.Segment{{Index: 0, Text: "second"}}, 5))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")
	assert.NotContains(t, string(data), "first")
}

func TestWriteSRT_InvalidChunkSize(t *testing.T) {
	err := WriteSRT(filepath.Join(t.TempDir(), "a.srt"), nil, 0)
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01,500"},
		{61 * time.Second, "00:01:01,000"},
		{3*time.Hour + 25*time.Minute + 45*time.Second + 678*time.Millisecond, "03:25:45,678"},
		{-time.Second, "00:00:00,000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTimestamp(tt.in))
		})
	}
}
