package services

import (
	"fmt"
	"strings"
)

// PromptPair is the system and user message sent for one completion.
type PromptPair struct {
	System string
	User   string
}

// GenerationParams tunes a single completion call. An empty Model means the
// client's default model.
type GenerationParams struct {
	Model            string
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
}

var (
	chapterParams    = GenerationParams{Temperature: 1, MaxTokens: 2000, PresencePenalty: 0.1, FrequencyPenalty: 0.1}
	generalParams    = GenerationParams{Temperature: 0.7, MaxTokens: 1500, PresencePenalty: 0.1, FrequencyPenalty: 0.1}
	quizParams       = GenerationParams{Temperature: 1, MaxTokens: 4000}
	assessmentParams = GenerationParams{Temperature: 0.7, MaxTokens: 4000}
)

const responseFormatRules = `RESPONSE FORMAT:
- Use **BOLD HEADINGS** for main sections
- Use bullet points for lists
- Include examples with ✅ emoji
- Use line breaks for readability
- If mathematical concepts are involved, use LaTeX format with ` + "`$...$`" + ` or ` + "`$$...$$`" + `
`

// BuildChapterPrompt restricts the answer to the given chapter.
func BuildChapterPrompt(question, content, title, language string) PromptPair {
	var b strings.Builder

	b.WriteString("You are an expert teacher and educational assistant. You have access to a specific chapter's content and should answer questions based on that content.\n\n")
	b.WriteString(`IMPORTANT GUIDELINES:
- Base your answers ONLY on the provided chapter content
- If the question cannot be answered from the chapter content, say so clearly and politely
- Provide detailed, educational explanations
- Use clear, structured formatting
- Include relevant examples when possible
- Be encouraging and supportive in your tone

`)
	b.WriteString(responseFormatRules)
	writeLanguage(&b, language)

	b.WriteString(fmt.Sprintf("\nChapter Title: %s\n", title))
	b.WriteString("Chapter Content: ")
	b.WriteString(content)

	user := fmt.Sprintf("Question: %s\n\nPlease answer this question based on the chapter content provided above.", question)

	return PromptPair{System: b.String(), User: user}
}

// BuildGeneralPrompt answers freely; a non-empty context is placed in front
// of the question.
func BuildGeneralPrompt(question, context, language string) PromptPair {
	var b strings.Builder

	b.WriteString("You are an expert teacher and educational assistant. You provide clear, detailed explanations on various topics.\n\n")
	b.WriteString(`IMPORTANT GUIDELINES:
- Provide comprehensive, educational explanations
- Use clear, structured formatting
- Include relevant examples when possible
- Be encouraging and supportive in your tone
- If context is provided, use it to give more relevant answers

`)
	b.WriteString(responseFormatRules)
	writeLanguage(&b, language)

	user := question
	if strings.TrimSpace(context) != "" {
		user = fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", context, question)
	}

	return PromptPair{System: b.String(), User: user}
}

// BuildQuizPrompt asks for exactly 10 question/answer pairs as a bare JSON
// array.
func BuildQuizPrompt(content, title string) PromptPair {
	var b strings.Builder

	b.WriteString("Generate 10 quiz questions and answers based ONLY on the chapter content below.\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", title))
	b.WriteString(fmt.Sprintf("Content: %s\n\n", content))
	b.WriteString(`Respond ONLY as a JSON array like:
[
  { "question": "What is...", "answer": "..." },
  ...
]`)

	return PromptPair{
		System: "You are a helpful assistant that creates quiz questions from chapter content in JSON format.",
		User:   b.String(),
	}
}

// BuildAssessmentPrompt asks for one JSON object with the four assessment
// sections, 10 items each.
func BuildAssessmentPrompt(content, title string) PromptPair {
	var b strings.Builder

	b.WriteString("You are a strict formatter. Create a comprehensive assessment ONLY from the given chapter.\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", title))
	b.WriteString(fmt.Sprintf("Content: %s\n\n", content))
	b.WriteString(`Return a SINGLE VALID JSON object with EXACTLY these keys and formats:
{
  "mcqs": [
    { "question": "string", "options": ["A","B","C","D"], "answer": "exact option text" }
  ],
  "trueFalse": [
    { "statement": "string", "answer": true }
  ],
  "fillups": [
    { "sentence": "Sentence with a _____ blank", "answer": "string" }
  ],
  "qa": [
    { "question": "string", "answer": "string" }
  ]
}

Rules:
- 10 MCQs, 10 True/False, 10 Fill-ups, 10 Q&A.
- Options must be plausible; only one correct answer.
- Answers must be precise and derivable from the chapter.
- Do not include any prose, Markdown, or explanation outside the JSON.`)

	return PromptPair{
		System: "You return ONLY strict JSON as requested. Never include extra text.",
		User:   b.String(),
	}
}

func writeLanguage(b *strings.Builder, language string) {
	language = strings.TrimSpace(language)
	if language == "" || strings.EqualFold(language, "en") || strings.EqualFold(language, "english") {
		return
	}
	b.WriteString(fmt.Sprintf("\nLanguage: Respond entirely in %s.\n", language))
}
