package advice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycoach/internal/config"
	"studycoach/pkg/contracts/domain"
)

func TestFormatErrorPayload(t *testing.T) {
	payload := FormatErrorPayload(domain.StudentSubjectErrors{
		"數學": {
			{QuestionID: "3", Category: "代數", KnowledgePoint: "一元一次方程式"},
			{QuestionID: "7", Category: "幾何", KnowledgePoint: "三角形"},
		},
		"國文": {},
	})

	// Subjects render in the fixed order, not map order.
	mathAt := strings.Index(payload, "數學")
	chineseAt := strings.Index(payload, "國文")
	require.GreaterOrEqual(t, mathAt, 0)
	require.GreaterOrEqual(t, chineseAt, 0)
	assert.Less(t, chineseAt, mathAt)

	assert.Contains(t, payload, "國文（錯題數：0）")
	assert.Contains(t, payload, "本科無錯題")
	assert.Contains(t, payload, "題號 3｜領域：代數｜知識點：一元一次方程式")
	assert.NotContains(t, payload, "英文")
}

func TestFormatErrorPayloadStable(t *testing.T) {
	errs := domain.StudentSubjectErrors{
		"英文": {{QuestionID: "1", Category: "閱讀", KnowledgePoint: "時態"}},
		"社會": {{QuestionID: "9", Category: "歷史", KnowledgePoint: "清領時期"}},
	}

	first := FormatErrorPayload(errs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FormatErrorPayload(errs))
	}
}

func TestFormatErrorPayloadEmpty(t *testing.T) {
	assert.Equal(t, "（無任何科目資料）", FormatErrorPayload(domain.StudentSubjectErrors{}))
}

func TestBuildAdvicePrompt(t *testing.T) {
	prompt := BuildAdvicePrompt("王小明", "數學（錯題數：1）")

	assert.Contains(t, prompt, "學生姓名：王小明")
	assert.Contains(t, prompt, "錯題數據：數學（錯題數：1）")
	assert.Contains(t, prompt, "## 一、 【整體表現總評】")
	assert.Contains(t, prompt, "### 5. 自然科")
}

func TestMockClient(t *testing.T) {
	t.Run("canned response", func(t *testing.T) {
		mock := &MockClient{}

		text, err := mock.GenerateAdvice(context.Background(), "prompt-1")
		require.NoError(t, err)
		assert.Contains(t, text, "整體表現總評")
		assert.Equal(t, []string{"prompt-1"}, mock.Prompts)
		assert.Equal(t, "mock", mock.Model())
	})

	t.Run("configured error", func(t *testing.T) {
		wantErr := errors.New("quota exhausted")
		mock := &MockClient{Err: wantErr}

		_, err := mock.GenerateAdvice(context.Background(), "prompt-1")
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("mock backend", func(t *testing.T) {
		client, err := NewClient(context.Background(), config.AdviceConfig{UseMock: true})
		require.NoError(t, err)
		assert.IsType(t, &MockClient{}, client)
	})

	t.Run("gemini requires api key", func(t *testing.T) {
		_, err := NewClient(context.Background(), config.AdviceConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})
}
