package scoring

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Resumes longer than this are cut before prompting; the tail rarely changes the verdict.
const maxResumeRunes = 20000

const promptTemplate = `You are a professional HR Recruiter.
Task:
1. Extract the Candidate's Full Name from the resume.
2. Compare the resume against the job requirements provided.

JOB REQUIREMENTS:
%s

RESUME TEXT:
%s

YOUR RESPONSE MUST FOLLOW THIS EXACT FORMAT:
NAME: [Candidate Full Name]
SCORE: [Number 0-100]
SUMMARY: [2-3 sentences explaining why]
`

// BuildPrompt renders the fixed-format scoring prompt.
func BuildPrompt(requirements, resumeText string) string {
	return fmt.Sprintf(promptTemplate, sanitize(requirements), truncate(sanitize(resumeText), maxResumeRunes))
}

// sanitize drops invalid UTF-8 that PDF extraction sometimes leaves behind; the APIs reject it.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "\n...[resume truncated]"
}
