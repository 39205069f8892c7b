package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"studyhelper_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func chatReply(content string) *http.Response {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func newTestAIService(rt roundTripperFunc) *AIService {
	cfg := config.AIConfig{BaseURL: "https://api.example.test/v1/", APIKey: "sk-test", Model: "gpt-4o-mini", Timeout: time.Second}
	return NewAIServiceWithClient(cfg, &http.Client{Transport: rt})
}

func TestAIServiceSummarizeSendsChatRequest(t *testing.T) {
	var got ChatCompletionRequest
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://api.example.test/v1/chat/completions", req.URL.String())
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return chatReply("## Summary\n**Photosynthesis** converts light into `chemical` energy"), nil
	})

	out, err := svc.Summarize(context.Background(), strings.Repeat("Plants use sunlight to make sugar. ", 5))
	require.NoError(t, err)
	assert.Equal(t, "Summary Photosynthesis converts light into chemical energy.", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestAIServiceSummarizeShortTextSkipsCall(t *testing.T) {
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		t.Fatal("unexpected request")
		return nil, nil
	})
	out, err := svc.Summarize(context.Background(), "too short")
	require.NoError(t, err)
	assert.Equal(t, "Text too short to summarize effectively.", out)
}

func TestAIServiceErrorStatus(t *testing.T) {
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(strings.NewReader("rate limited"))}, nil
	})
	_, err := svc.ExtractKeywords(context.Background(), "cell membrane, mitochondria, ribosome and more")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestAIServiceGenerateQuestionsParsesFencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{"topic":"Cells","questions":[{"question_text":"Powerhouse of the cell?","option_a":"Nucleus","option_b":"Mitochondria","option_c":"Ribosome","option_d":"Golgi","correct_option":"B"}]}` + "\n```"
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		return chatReply(reply), nil
	})

	quiz, err := svc.GenerateQuestions(context.Background(), "", "Cells", 1)
	require.NoError(t, err)
	assert.Equal(t, "Cells", quiz.Topic)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "Mitochondria", quiz.Questions[0].OptionB)
	assert.Equal(t, "B", quiz.Questions[0].CorrectOption)
}

func TestAIServiceGenerateQuestionsBadJSON(t *testing.T) {
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		return chatReply("I cannot do that"), nil
	})
	_, err := svc.GenerateQuestions(context.Background(), "some content", "", 3)
	assert.Error(t, err)
}

func TestAIServiceFindResources(t *testing.T) {
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		return chatReply(`{"main_subject":"Mathematics","specific_topics":["limits"],"search_terms":["calculus limits"]}`), nil
	})

	res, err := svc.FindResources(context.Background(), "A limit describes the value a function approaches.")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), maxResources)
	assert.Equal(t, "https://en.wikipedia.org/w/index.php?search=calculus+limits", res[0].URL)

	urls := map[string]bool{}
	for _, r := range res {
		assert.False(t, urls[r.URL], "duplicate %s", r.URL)
		urls[r.URL] = true
	}
	assert.True(t, urls["https://www.khanacademy.org/math"])
}

func TestAIServiceFindResourcesFallsBackOnFailure(t *testing.T) {
	svc := newTestAIService(func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	res, err := svc.FindResources(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, generalResources(), res)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", cleanText("   "))
	assert.Equal(t, "Well done!", cleanText("**Well   done!**"))
	assert.Equal(t, "Keep practicing.", cleanText("# Keep *practicing*"))
}
