package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decision struct {
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
}

func TestDecodeStrict(t *testing.T) {
	var d decision
	tier, err := Decode(`{"target": "chat", "confidence": 0.7}`, &d)
	require.NoError(t, err)
	assert.Equal(t, TierStrict, tier)
	assert.Equal(t, "chat", d.Target)
}

func TestDecodeFencedBlock(t *testing.T) {
	text := "Here is my answer:\n```json\n{\"target\": \"scheduler\", \"confidence\": 0.8}\n```\nHope that helps!"
	var d decision
	tier, err := Decode(text, &d)
	require.NoError(t, err)
	assert.Equal(t, TierExtracted, tier)
	assert.Equal(t, "scheduler", d.Target)
}

func TestDecodeEmbeddedObject(t *testing.T) {
	text := `Sure! The decision is {"target": "academic", "confidence": 0.95} as requested.`
	var d decision
	tier, err := Decode(text, &d)
	require.NoError(t, err)
	assert.Equal(t, TierExtracted, tier)
	assert.Equal(t, "academic", d.Target)
}

func TestDecodeArray(t *testing.T) {
	var out []int
	tier, err := Decode("the ids are [1, 2, 3] ok", &out)
	require.NoError(t, err)
	assert.Equal(t, TierExtracted, tier)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestDecodeFailures(t *testing.T) {
	var d decision
	_, err := Decode("", &d)
	assert.Error(t, err)

	_, err = Decode("no json anywhere in this sentence", &d)
	assert.Error(t, err)

	// braces present but never balanced into valid JSON
	_, err = Decode("broken { not json } oops {", &d)
	assert.Error(t, err)
}

func TestDecodeOrFallback(t *testing.T) {
	d, tier := DecodeOr("total garbage", func(raw string) decision {
		return decision{Target: "chat", Confidence: 0.1}
	})
	assert.Equal(t, TierFallback, tier)
	assert.Equal(t, "chat", d.Target)

	d, tier = DecodeOr(`{"target": "calendar"}`, func(raw string) decision {
		t.Fatal("fallback must not run on valid input")
		return decision{}
	})
	assert.Equal(t, TierStrict, tier)
	assert.Equal(t, "calendar", d.Target)
}

func TestField(t *testing.T) {
	assert.Equal(t, "extractor", Field(`prefix {"target": "extractor"} suffix`, "target"))
	assert.Equal(t, "", Field("nothing here", "target"))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "strict", TierStrict.String())
	assert.Equal(t, "extracted", TierExtracted.String())
	assert.Equal(t, "fallback", TierFallback.String())
}
