package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

func sampleQuestions() []models.CustomQuestion {
	return []models.CustomQuestion{
		{Question: "Track?", Type: models.QuestionTypeMCQ, Options: []string{"Web", "ML", "Mobile"}},
		{Question: "First time?", Type: models.QuestionTypeYesNo},
		{Question: "Team size?", Type: models.QuestionTypeQA, AnswerType: models.AnswerTypeInteger},
		{Question: "Why join?", Type: models.QuestionTypeQA, AnswerType: models.AnswerTypeText},
	}
}

func TestValidateAnswersAccepts(t *testing.T) {
	answers := []models.Answer{
		{Index: 0, Answer: "ML"},
		{Index: 1, Answer: "No"},
		{Index: 2, Answer: "4"},
		{Index: 3, Answer: "I like building things"},
	}
	assert.NoError(t, ValidateAnswers(sampleQuestions(), answers, true))
}

func TestValidateAnswersRejections(t *testing.T) {
	tests := []struct {
		name    string
		answers []models.Answer
		message string
	}{
		{"negative index", []models.Answer{{Index: -1, Answer: "x"}}, "does not match any question"},
		{"index past end", []models.Answer{{Index: 4, Answer: "x"}}, "does not match any question"},
		{"mcq answer not an option", []models.Answer{{Index: 0, Answer: "Gaming"}}, "not an option"},
		{"mcq option is case sensitive", []models.Answer{{Index: 0, Answer: "ml"}}, "not an option"},
		{"yes/no lowercase rejected", []models.Answer{{Index: 1, Answer: "yes"}}, "expects Yes or No"},
		{"yes/no arbitrary text rejected", []models.Answer{{Index: 1, Answer: "maybe"}}, "expects Yes or No"},
		{"integer answer not numeric", []models.Answer{{Index: 2, Answer: "four"}}, "expects an integer"},
		{"integer answer with decimals", []models.Answer{{Index: 2, Answer: "4.5"}}, "expects an integer"},
		{"duplicate index", []models.Answer{{Index: 1, Answer: "Yes"}, {Index: 1, Answer: "No"}}, "duplicate answer"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAnswers(sampleQuestions(), tc.answers, false)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidateAnswersIntegerAcceptsSignsAndSpaces(t *testing.T) {
	questions := sampleQuestions()
	assert.NoError(t, ValidateAnswers(questions, []models.Answer{{Index: 2, Answer: " -3 "}}, false))
	assert.NoError(t, ValidateAnswers(questions, []models.Answer{{Index: 2, Answer: "0"}}, false))
}

func TestValidateAnswersRequireAllReportsMissing(t *testing.T) {
	answers := []models.Answer{
		{Index: 0, Answer: "Web"},
		{Index: 2, Answer: "2"},
		{Index: 3, Answer: "curiosity"},
	}
	err := ValidateAnswers(sampleQuestions(), answers, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 1 is not answered")
}

func TestValidateAnswersPartialAllowedWithoutRequireAll(t *testing.T) {
	answers := []models.Answer{{Index: 1, Answer: "Yes"}}
	assert.NoError(t, ValidateAnswers(sampleQuestions(), answers, false))
}

func TestValidateAnswersEmptyQuestionSet(t *testing.T) {
	assert.NoError(t, ValidateAnswers(nil, nil, true))
	err := ValidateAnswers(nil, []models.Answer{{Index: 0, Answer: "x"}}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match any question")
}

func requiringEvent() *models.Event {
	return &models.Event{
		RequireResume:      true,
		AllowedFileTypes:   models.StringList{"pdf", "docx"},
		RequireBasicInfo:   true,
		RequiredBasicInfo:  models.StringList{"name", "email"},
		RequireWebLink:     true,
		RequiredWebLinks:   models.StringList{"github"},
		RequireCoverLetter: true,
		RequirePortfolio:   true,
		CustomQuestions:    models.QuestionList{{Question: "First time?", Type: models.QuestionTypeYesNo}},
	}
}

func completeSubmission() RegistrationSubmission {
	return RegistrationSubmission{
		UserID:         "user-1",
		ResumeFilename: "resume.pdf",
		BasicInfo:      map[string]string{"name": "Ana", "email": "ana@coe.dev"},
		WebLinks:       map[string]string{"github": "https://github.com/ana"},
		CoverLetter:    "I would like to join",
		Portfolio:      "https://ana.dev",
		Answers:        []models.Answer{{Index: 0, Answer: "Yes"}},
	}
}

func TestValidateSubmissionAccepts(t *testing.T) {
	assert.NoError(t, ValidateSubmission(requiringEvent(), completeSubmission()))
}

func TestValidateSubmissionChecksRequirementsInOrder(t *testing.T) {
	event := requiringEvent()

	// Everything missing: the resume failure is reported first.
	err := ValidateSubmission(event, RegistrationSubmission{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume file is required")

	submission := completeSubmission()
	submission.BasicInfo = map[string]string{"name": "Ana"}
	submission.WebLinks = nil
	err = ValidateSubmission(event, submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `basic info field "email" is required`)

	submission = completeSubmission()
	submission.WebLinks = map[string]string{"github": "  "}
	err = ValidateSubmission(event, submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `web link "github" is required`)

	submission = completeSubmission()
	submission.CoverLetter = ""
	err = ValidateSubmission(event, submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cover letter is required")

	submission = completeSubmission()
	submission.Portfolio = ""
	err = ValidateSubmission(event, submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio is required")

	submission = completeSubmission()
	submission.Answers = nil
	err = ValidateSubmission(event, submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 0 is not answered")
}

func TestValidateSubmissionRejectsDisallowedFileType(t *testing.T) {
	submission := completeSubmission()
	submission.ResumeFilename = "resume.exe"
	err := ValidateSubmission(requiringEvent(), submission)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume file type")
}

func TestValidateSubmissionFileTypeMatchingIsCaseInsensitive(t *testing.T) {
	submission := completeSubmission()
	submission.ResumeFilename = "Resume.PDF"
	assert.NoError(t, ValidateSubmission(requiringEvent(), submission))
}

func TestValidateSubmissionSkipsDisabledRequirements(t *testing.T) {
	event := &models.Event{
		CustomQuestions: models.QuestionList{{Question: "Team size?", Type: models.QuestionTypeQA, AnswerType: models.AnswerTypeInteger}},
	}
	submission := RegistrationSubmission{
		UserID:  "user-1",
		Answers: []models.Answer{{Index: 0, Answer: "3"}},
	}
	assert.NoError(t, ValidateSubmission(event, submission))
}
