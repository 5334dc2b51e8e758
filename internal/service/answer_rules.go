package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

// RegistrationSubmission carries everything a user submits when registering
// for an event. ResumeFilename is the original upload name; storage happens
// after validation passes.
type RegistrationSubmission struct {
	UserID         string            `json:"user_id"`
	ResumeFilename string            `json:"-"`
	BasicInfo      map[string]string `json:"basic_info"`
	WebLinks       map[string]string `json:"web_links"`
	CoverLetter    string            `json:"cover_letter"`
	Portfolio      string            `json:"portfolio"`
	Answers        []models.Answer   `json:"custom_answers"`
}

// ValidateAnswers checks submitted answers against an event's current
// question set. Answers bind by index, so each one is checked against the
// question at that position: the index must be in range, MCQ answers must
// match one of the options, Yes/No answers must be the literal "Yes" or
// "No", and Integer-typed free-form answers must parse as an integer.
// When requireAll is set, every question must also have exactly one answer.
// The first failing rule wins.
func ValidateAnswers(questions []models.CustomQuestion, answers []models.Answer, requireAll bool) error {
	answered := make(map[int]bool, len(answers))
	for _, answer := range answers {
		if answer.Index < 0 || answer.Index >= len(questions) {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("answer index %d does not match any question", answer.Index))
		}
		if answered[answer.Index] {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("duplicate answer for question %d", answer.Index))
		}
		answered[answer.Index] = true

		question := questions[answer.Index]
		switch question.Type {
		case models.QuestionTypeMCQ:
			if !containsOption(question.Options, answer.Answer) {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("answer %q is not an option for question %d", answer.Answer, answer.Index))
			}
		case models.QuestionTypeYesNo:
			if answer.Answer != "Yes" && answer.Answer != "No" {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("question %d expects Yes or No", answer.Index))
			}
		case models.QuestionTypeQA:
			if question.AnswerType == models.AnswerTypeInteger {
				if _, err := strconv.Atoi(strings.TrimSpace(answer.Answer)); err != nil {
					return appErrors.Clone(appErrors.ErrValidation,
						fmt.Sprintf("question %d expects an integer answer", answer.Index))
				}
			}
		default:
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("question %d has unsupported type %q", answer.Index, question.Type))
		}
	}

	if requireAll {
		for i := range questions {
			if !answered[i] {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("question %d is not answered", i))
			}
		}
	}
	return nil
}

// ValidateSubmission checks a full registration submission against the
// event's requirement schema. Requirements are checked in a fixed order:
// resume file, basic info fields, web links, cover letter, portfolio, then
// custom questions. The first failing requirement wins.
func ValidateSubmission(event *models.Event, submission RegistrationSubmission) error {
	if event.RequireResume {
		if submission.ResumeFilename == "" {
			return appErrors.Clone(appErrors.ErrValidation, "resume file is required")
		}
		if len(event.AllowedFileTypes) > 0 && !allowedFileType(event.AllowedFileTypes, submission.ResumeFilename) {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("resume file type must be one of %s", strings.Join(event.AllowedFileTypes, ", ")))
		}
	}

	if event.RequireBasicInfo {
		for _, field := range event.RequiredBasicInfo {
			if strings.TrimSpace(submission.BasicInfo[field]) == "" {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("basic info field %q is required", field))
			}
		}
	}

	if event.RequireWebLink {
		for _, link := range event.RequiredWebLinks {
			if strings.TrimSpace(submission.WebLinks[link]) == "" {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("web link %q is required", link))
			}
		}
	}

	if event.RequireCoverLetter && strings.TrimSpace(submission.CoverLetter) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "cover letter is required")
	}

	if event.RequirePortfolio && strings.TrimSpace(submission.Portfolio) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "portfolio is required")
	}

	return ValidateAnswers(event.CustomQuestions, submission.Answers, true)
}

func containsOption(options []string, answer string) bool {
	for _, option := range options {
		if option == answer {
			return true
		}
	}
	return false
}

func allowedFileType(allowed []string, filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 || dot == len(filename)-1 {
		return false
	}
	ext := strings.ToLower(filename[dot+1:])
	for _, t := range allowed {
		if strings.ToLower(strings.TrimPrefix(t, ".")) == ext {
			return true
		}
	}
	return false
}
