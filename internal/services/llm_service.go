package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
)

// ErrLLMDisabled is returned by LLM-backed operations when no API key is
// configured.
var ErrLLMDisabled = errors.New("llm is not configured")

const maxPromptContent = 20000

// LLMService wraps a langchaingo model. A nil *LLMService is valid and behaves
// as disabled.
type LLMService struct {
	client llms.Model
	log    *zap.Logger
}

// NewLLMService connects to Gemini. An empty apiKey yields a nil service.
func NewLLMService(ctx context.Context, apiKey, model string, log *zap.Logger) (*LLMService, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewLLMServiceWithModel(client, log), nil
}

func NewLLMServiceWithModel(client llms.Model, log *zap.Logger) *LLMService {
	return &LLMService{client: client, log: log}
}

func (s *LLMService) Enabled() bool { return s != nil && s.client != nil }

func (s *LLMService) generate(ctx context.Context, prompt string) (string, error) {
	if !s.Enabled() {
		return "", ErrLLMDisabled
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.client, prompt)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return resp, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// stripFences removes a markdown code fence models tend to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company (e.g., Google, StartupInc)",
    "role_title": "Job title (e.g., Senior Backend Engineer)",
    "location": "Job location or 'Remote'",
    "description": "A clean summary of the job. Focus on Responsibilities. Remove HTML tags.",
    "tech_stack": ["Array", "of", "requirements", "e.g., Go, React, 3+ years experience"],
    "benefits": ["Array", "of", "benefits"],
    "salary_range": "The salary string if explicitly mentioned (e.g., '$100k - $150k'), otherwise null",
    "job_type": "One of full-time, part-time, contract, internship, or null",
    "experience_level": "One of entry, mid, senior, lead, or null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

type extractedJob struct {
	CompanyName     string   `json:"company_name"`
	RoleTitle       string   `json:"role_title"`
	Location        *string  `json:"location"`
	Description     *string  `json:"description"`
	TechStack       []string `json:"tech_stack"`
	Benefits        []string `json:"benefits"`
	SalaryRange     *string  `json:"salary_range"`
	JobType         *string  `json:"job_type"`
	ExperienceLevel *string  `json:"experience_level"`
}

// parseExtractedJob turns the model's JSON answer into a create payload.
func parseExtractedJob(raw string) (dtos.JobCreationRequest, error) {
	var e extractedJob
	if err := json.Unmarshal([]byte(stripFences(raw)), &e); err != nil {
		return dtos.JobCreationRequest{}, fmt.Errorf("parse extraction: %w", err)
	}
	req := dtos.JobCreationRequest{
		Title:           strings.TrimSpace(e.RoleTitle),
		Company:         strings.TrimSpace(e.CompanyName),
		Location:        e.Location,
		Salary:          e.SalaryRange,
		Description:     e.Description,
		Requirements:    e.TechStack,
		Benefits:        e.Benefits,
		JobType:         e.JobType,
		ExperienceLevel: e.ExperienceLevel,
	}
	if req.Requirements == nil {
		req.Requirements = []string{}
	}
	if req.Benefits == nil {
		req.Benefits = []string{}
	}
	return req, nil
}

// ExtractJobDetails asks the model to turn a raw job page into a job payload.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (dtos.JobCreationRequest, error) {
	resp, err := s.generate(ctx, fmt.Sprintf(jobExtractionPrompt, truncate(rawHTML, maxPromptContent)))
	if err != nil {
		return dtos.JobCreationRequest{}, err
	}
	return parseExtractedJob(resp)
}

const coverLetterPrompt = `
Write a concise, professional cover letter (under 250 words) for the candidate below applying to the job below.
Use only facts given here. Output plain text only, no placeholders, no markdown.

### CANDIDATE
Name: %s
Experience: %s
Skills: %s
Resume: %s
Extra profile data: %s

### JOB
Title: %s
Company: %s
Requirements: %s
Description: %s
`

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GenerateCoverLetter drafts a cover letter for user applying to job, using the
// profile's template data when one is given.
func (s *LLMService) GenerateCoverLetter(ctx context.Context, user models.User, job models.Job, profile *models.UserProfile) (string, error) {
	extra := "{}"
	if profile != nil {
		if b, err := json.Marshal(profile.TemplateData); err == nil {
			extra = string(b)
		}
	}
	prompt := fmt.Sprintf(coverLetterPrompt,
		user.Name,
		deref(user.Experience),
		strings.Join(user.Skills, ", "),
		truncate(deref(user.Resume), 4000),
		extra,
		job.Title,
		job.Company,
		strings.Join(job.Requirements, ", "),
		truncate(deref(job.Description), 4000),
	)
	resp, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	letter := strings.TrimSpace(resp)
	if letter == "" {
		return "", errors.New("llm returned an empty cover letter")
	}
	return letter, nil
}

const identifyRolePrompt = `
An email from a company may concern one of several job applications.
Candidate roles (index: title):
%s
Email subject: %s
Email body:
%s

Answer with the index number of the role this email is about, or -1 if it cannot be determined. Output the number only.
`

// IdentifyJobRole picks which of titles an email is about. It returns -1 when
// the model cannot tell or is unavailable.
func (s *LLMService) IdentifyJobRole(ctx context.Context, titles []string, subject, body string) int {
	var list strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&list, "%d: %s\n", i, t)
	}
	resp, err := s.generate(ctx, fmt.Sprintf(identifyRolePrompt, list.String(), subject, truncate(body, 8000)))
	if err != nil {
		if s.Enabled() {
			s.log.Warn("identify job role failed", zap.Error(err))
		}
		return -1
	}
	return parseRoleIndex(resp, len(titles))
}

func parseRoleIndex(raw string, n int) int {
	idx, err := strconv.Atoi(strings.TrimSpace(stripFences(raw)))
	if err != nil || idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// EmailAnalysis is the classification of one recruiter email. Status is an
// application status, or empty when the email changes nothing.
type EmailAnalysis struct {
	Status  models.ApplicationStatus
	Summary string
}

const emailStatusPrompt = `
You classify recruiter emails about a job application at %s.
Subject: %s
Body:
%s

Reply with JSON only: {"status": "<STATUS>", "summary": "<one sentence>"}
where STATUS is one of: under_review, interview, rejected, offered, NO_CHANGE.
Use NO_CHANGE for newsletters, receipts of unrelated actions, or when unsure.
`

func parseEmailAnalysis(raw string) (EmailAnalysis, error) {
	var out struct {
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return EmailAnalysis{}, fmt.Errorf("parse email analysis: %w", err)
	}
	status := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(out.Status)))
	if !status.Valid() {
		status = ""
	}
	return EmailAnalysis{Status: status, Summary: out.Summary}, nil
}

// AnalyzeEmailStatus classifies an email from company into a status change.
func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error) {
	resp, err := s.generate(ctx, fmt.Sprintf(emailStatusPrompt, company, subject, truncate(body, 8000)))
	if err != nil {
		return EmailAnalysis{}, err
	}
	return parseEmailAnalysis(resp)
}
