package expo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPushToken(t *testing.T) {
	valid := []string{
		"ExponentPushToken[abc]",
		"ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]",
		"ExpoPushToken[N4bQ-7fKz_0]",
	}
	for _, tok := range valid {
		assert.True(t, IsPushToken(tok), tok)
	}

	invalid := []string{
		"",
		"abc",
		"ExponentPushToken[]",
		"ExponentPushToken[abc",
		"ExponentPushTokenabc]",
		" ExponentPushToken[abc]",
		"ExponentPushToken[abc] ",
		"ExponentPushToken[a[b]c]",
		"FooPushToken[abc]",
		"dQw4w9WgXcQ:APA91bHun4MxP5egoKMwt2KZFBaFUH-1RYqx",
		"3f1c6c8e-7a0b-4f7e-9d5a-2b9c1e0f4a6d",
	}
	for _, tok := range invalid {
		assert.False(t, IsPushToken(tok), tok)
	}
}

func TestChunk(t *testing.T) {
	msgs := make([]Message, 250)
	for i := range msgs {
		msgs[i] = Message{To: "ExponentPushToken[" + string(rune('a'+i%26)) + "]"}
	}

	chunks := Chunk(msgs, 100)
	if assert.Len(t, chunks, 3) {
		assert.Len(t, chunks[0], 100)
		assert.Len(t, chunks[1], 100)
		assert.Len(t, chunks[2], 50)
		assert.Equal(t, msgs[100], chunks[1][0])
		assert.Equal(t, msgs[249], chunks[2][49])
	}

	assert.Empty(t, Chunk(nil, 100))
	assert.Len(t, Chunk(msgs[:5], 0), 1, "non-positive size falls back to MaxBatchSize")
}
