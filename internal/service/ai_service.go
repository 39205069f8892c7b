package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/model"
	"studyhelper_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	minSummaryInput = 50
	minKeywordInput = 20
	maxQuizContent  = 3000
	maxResourceText = 1000
	maxResources    = 8
)

// AIService talks to an OpenAI-compatible chat completions endpoint and
// implements the generative collaborators.
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// NewAIServiceWithClient lets callers supply the HTTP client.
func NewAIServiceWithClient(cfg config.AIConfig, client *http.Client) *AIService {
	return &AIService{config: cfg, client: client}
}

// Configured reports whether an endpoint and key are set.
func (s *AIService) Configured() bool {
	return s.config.BaseURL != "" && s.config.APIKey != ""
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) chat(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.config.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return strings.TrimSpace(result.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

var (
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	codeRe     = regexp.MustCompile("`(.*?)`")
	starsRe    = regexp.MustCompile(`\*+`)
	headerRe   = regexp.MustCompile(`#+\s*`)
	spaceRe    = regexp.MustCompile(`\s+`)
	jsonBlobRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// cleanText strips markdown from a model reply and collapses whitespace.
func cleanText(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = starsRe.ReplaceAllString(text, "")
	text = headerRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if text != "" && !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}

// extractJSON finds the JSON object in a reply that may be fenced or padded.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	if m := jsonBlobRe.FindString(reply); m != "" {
		return m
	}
	return reply
}

func (s *AIService) Summarize(ctx context.Context, text string) (string, error) {
	if len(strings.TrimSpace(text)) < minSummaryInput {
		return "Text too short to summarize effectively.", nil
	}
	out, err := s.chat(ctx,
		"You are a helpful assistant that creates concise, clear summaries of academic and study materials. Focus on key concepts, main ideas, and important details.",
		"Please provide a comprehensive summary of the following text, highlighting the main points and key concepts:\n\n"+text,
		200, 0.3)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return cleanText(out), nil
}

func (s *AIService) ExtractKeywords(ctx context.Context, text string) (string, error) {
	if len(strings.TrimSpace(text)) < minKeywordInput {
		return "", nil
	}
	out, err := s.chat(ctx,
		"You are a helpful assistant that extracts key terms, concepts, and important phrases from academic texts. Return them as a comma-separated list.",
		"Extract the most important keywords and concepts from this text:\n\n"+text,
		100, 0.2)
	if err != nil {
		return "", fmt.Errorf("extract keywords: %w", err)
	}
	return strings.TrimSuffix(cleanText(out), "."), nil
}

func (s *AIService) GenerateQuestions(ctx context.Context, content, topic string, n int) (*GeneratedQuiz, error) {
	if n <= 0 {
		n = 10
	}
	const format = `Format your response as valid JSON:
{"topic": "%s", "questions": [{"question_text": "Question here?", "option_a": "First option", "option_b": "Second option", "option_c": "Third option", "option_d": "Fourth option", "correct_option": "A"}]}`

	var prompt string
	if strings.TrimSpace(content) == "" {
		prompt = fmt.Sprintf("Generate exactly %d multiple choice questions about %q.\n\n"+
			"Requirements:\n- Each question has exactly 4 options (A, B, C, D)\n- Only one correct answer per question\n- Cover different aspects of the topic\n\n"+format,
			n, topic, topic)
	} else {
		if len(content) > maxQuizContent {
			content = content[:maxQuizContent]
		}
		prompt = fmt.Sprintf("Based on the following content, generate exactly %d multiple choice questions.\n\nContent:\n%s\n\n"+
			"Requirements:\n- Each question has exactly 4 options (A, B, C, D)\n- Only one correct answer per question\n- Questions test understanding of the content\n\n"+format,
			n, content, "Brief topic name based on content")
	}

	out, err := s.chat(ctx,
		"You are an expert quiz generator. Always return valid JSON format with exactly the requested number of questions.",
		prompt, 3000, 0.7)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(extractJSON(out)), &quiz); err != nil {
		return nil, fmt.Errorf("generate questions: parse reply: %w", err)
	}
	if quiz.Topic == "" {
		quiz.Topic = topic
	}
	return &quiz, nil
}

func (s *AIService) PerformanceFeedback(ctx context.Context, score, total int, topic string) (string, error) {
	prompt := fmt.Sprintf("Generate a brief, encouraging performance feedback for a student who scored %d out of %d (%.1f%%) on a quiz about %q. "+
		"Keep it to two sentences, be honest about performance and suggest what to study next. Return only the feedback text.",
		score, total, Percentage(score, total), topic)
	out, err := s.chat(ctx, "You are an encouraging tutor providing brief, constructive feedback on quiz performance.", prompt, 100, 0.7)
	if err != nil {
		return "", fmt.Errorf("performance feedback: %w", err)
	}
	return cleanText(out), nil
}

type topicAnalysis struct {
	MainSubject    string   `json:"main_subject"`
	SpecificTopics []string `json:"specific_topics"`
	SearchTerms    []string `json:"search_terms"`
}

// FindResources asks the model for the subject and search terms of the text
// and turns them into search links plus a curated list for the subject.
// Model failures degrade to the general list.
func (s *AIService) FindResources(ctx context.Context, text string) ([]model.Resource, error) {
	if len(text) > maxResourceText {
		text = text[:maxResourceText]
	}

	var analysis topicAnalysis
	out, err := s.chat(ctx,
		`Analyze the given text and extract topics for finding educational resources. Return a JSON object with "main_subject" (the academic field), "specific_topics" (3-5 concepts) and "search_terms" (2-3 search phrases).`,
		"Extract topics and concepts from this text for finding educational resources:\n\n"+text,
		150, 0.2)
	if err == nil {
		err = json.Unmarshal([]byte(extractJSON(out)), &analysis)
	}
	if err != nil {
		logger.Log.Warn("Resource analysis failed, using general resources", zap.Error(err))
		return generalResources(), nil
	}

	var all []model.Resource
	for i, term := range analysis.SearchTerms {
		if i == 3 {
			break
		}
		all = append(all, searchResources(term)...)
	}
	all = append(all, subjectResources(analysis.MainSubject)...)
	return dedupeResources(all, maxResources), nil
}

func searchResources(term string) []model.Resource {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	q := url.QueryEscape(term)
	return []model.Resource{
		{Title: "Wikipedia - " + term, URL: "https://en.wikipedia.org/w/index.php?search=" + q, Description: "Encyclopedia articles about " + term},
		{Title: "Khan Academy - " + term, URL: "https://www.khanacademy.org/search?page_search_query=" + q, Description: "Lessons and practice on " + term},
		{Title: "Coursera - " + term, URL: "https://www.coursera.org/search?query=" + q, Description: "University courses covering " + term},
	}
}

func subjectResources(subject string) []model.Resource {
	s := strings.ToLower(subject)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("math", "calculus", "algebra", "geometry"):
		return []model.Resource{
			{Title: "Khan Academy - Mathematics", URL: "https://www.khanacademy.org/math", Description: "Free interactive math courses from arithmetic to calculus"},
			{Title: "Wolfram MathWorld", URL: "https://mathworld.wolfram.com", Description: "Mathematics encyclopedia and reference"},
			{Title: "Paul's Online Math Notes", URL: "https://tutorial.math.lamar.edu", Description: "Math tutorials and practice problems"},
		}
	case has("biology", "anatomy", "medicine", "life science"):
		return []model.Resource{
			{Title: "Khan Academy - Biology", URL: "https://www.khanacademy.org/science/biology", Description: "Biology courses from cells to ecosystems"},
			{Title: "Nature Education", URL: "https://www.nature.com/scitable/", Description: "Science education resources from Nature"},
		}
	case has("physics", "chemistry", "science"):
		return []model.Resource{
			{Title: "Khan Academy - Science", URL: "https://www.khanacademy.org/science", Description: "Physics, chemistry and biology courses"},
			{Title: "PhET Interactive Simulations", URL: "https://phet.colorado.edu", Description: "Interactive math and science simulations"},
		}
	case has("computer", "programming", "coding", "software", "technology"):
		return []model.Resource{
			{Title: "freeCodeCamp", URL: "https://www.freecodecamp.org", Description: "Free coding courses and tutorials"},
			{Title: "MIT OpenCourseWare - Computer Science", URL: "https://ocw.mit.edu/courses/electrical-engineering-and-computer-science/", Description: "MIT computer science course materials"},
		}
	case has("history", "literature", "english", "humanities"):
		return []model.Resource{
			{Title: "Britannica", URL: "https://www.britannica.com", Description: "Encyclopedia with historical and literary content"},
			{Title: "Project Gutenberg", URL: "https://www.gutenberg.org", Description: "Free electronic books and classic literature"},
		}
	case has("business", "economics", "finance", "management"):
		return []model.Resource{
			{Title: "Khan Academy - Economics", URL: "https://www.khanacademy.org/economics-finance-domain", Description: "Economics and finance courses"},
			{Title: "Coursera Business", URL: "https://www.coursera.org/browse/business", Description: "Business courses from universities"},
		}
	}
	return generalResources()
}

func generalResources() []model.Resource {
	return []model.Resource{
		{Title: "Khan Academy", URL: "https://www.khanacademy.org", Description: "Free online courses covering math, science, and humanities"},
		{Title: "Coursera", URL: "https://www.coursera.org", Description: "University courses and professional certificates"},
		{Title: "MIT OpenCourseWare", URL: "https://ocw.mit.edu", Description: "Free course materials from MIT"},
		{Title: "edX", URL: "https://www.edx.org", Description: "Free online courses from top universities"},
	}
}

func dedupeResources(in []model.Resource, limit int) []model.Resource {
	seen := make(map[string]bool, len(in))
	out := make([]model.Resource, 0, limit)
	for _, r := range in {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
