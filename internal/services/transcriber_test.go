package services

import (
	"context"
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilMinutes(t *testing.T) {
	cases := []struct {
		seconds float64
		want    int64
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{59.2, 1},
		{60, 1},
		{60.1, 2},
		{61, 2},
		{510, 9},
		{3600, 60},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CeilMinutes(tc.seconds), "seconds=%v", tc.seconds)
	}
}

func TestDurationMinutes(t *testing.T) {
	r := TranscriptResult{DurationSeconds: 125}
	assert.Equal(t, int64(3), r.DurationMinutes())

	empty := TranscriptResult{}
	assert.Zero(t, empty.DurationMinutes())
}

func TestNormalizeAudioResponse(t *testing.T) {
	raw := `{
		"task": "transcribe",
		"language": "en",
		"duration": 12.5,
		"text": "hello world how are you",
		"segments": [
			{"start": 0, "end": 4.2, "text": " hello world ", "no_speech_prob": 0.02},
			{"start": 4.2, "end": 12.5, "text": "how are you", "no_speech_prob": 0.1}
		]
	}`
	var resp openai.AudioResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	result := normalizeAudioResponse(resp)

	assert.Equal(t, "en", result.Language)
	assert.Equal(t, 12.5, result.DurationSeconds)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, int64(0), result.Segments[0].StartMs)
	assert.Equal(t, int64(4200), result.Segments[0].EndMs)
	assert.Equal(t, "hello world", result.Segments[0].Text)
	assert.InDelta(t, 0.98, result.Segments[0].Confidence, 1e-9)
	assert.Equal(t, int64(4200), result.Segments[1].StartMs)
}

func TestNormalizeAudioResponse_FallsBackToFullText(t *testing.T) {
	raw := `{"language": "en", "duration": 3.0, "text": " just one line "}`
	var resp openai.AudioResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	result := normalizeAudioResponse(resp)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "just one line", result.Segments[0].Text)
	assert.Equal(t, int64(3000), result.Segments[0].EndMs)
}

func TestOpenAITranscriber_UnknownJob(t *testing.T) {
	tr := NewOpenAITranscriber("test-key")

	_, err := tr.Poll(context.Background(), "whisper:missing")
	assert.Error(t, err)

	_, err = tr.Fetch(context.Background(), "whisper:missing")
	assert.Error(t, err)
}

func TestOpenAITranscriber_RequiresAudioPath(t *testing.T) {
	tr := NewOpenAITranscriber("test-key")

	_, err := tr.Submit(context.Background(), SubmitRequest{AudioPath: "  "})
	assert.Error(t, err)
}
