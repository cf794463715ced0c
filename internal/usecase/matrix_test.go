package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/usecase"
)

func TestBuildCandidateMatrix_RetriesSchemaViolationOnce(t *testing.T) {
	t.Parallel()
	matrices := newFakeCandidateMatrixRepo()
	llm := &fakeLLM{}
	llm.matrixFn = func(string) (domain.CandidateMatrix, error) {
		if llm.matrixCalls.Load() == 1 {
			return domain.CandidateMatrix{}, fmt.Errorf("op=llm.parse_json: %w", domain.ErrSchemaInvalid)
		}
		return domain.CandidateMatrix{Skills: []domain.CandidateSkill{{Name: "Go"}}}, nil
	}
	svc := usecase.NewMatrixService(llm, &fakeExtractor{}, matrices, newFakeJobMatrixRepo(), newFakeCvFileRepo())

	m, err := svc.BuildCandidateMatrix(context.Background(), "c1", "f1", "cv text")
	require.NoError(t, err)
	assert.Equal(t, int64(2), llm.matrixCalls.Load())
	assert.Equal(t, "c1", m.CandidateID)
	assert.Equal(t, "f1", m.CvFileID)

	stored, err := matrices.GetByCandidate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "f1", stored.CvFileID)
}

func TestBuildCandidateMatrix_GivesUpAfterSecondSchemaViolation(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{matrixFn: func(string) (domain.CandidateMatrix, error) {
		return domain.CandidateMatrix{}, fmt.Errorf("op=llm.parse_json: %w", domain.ErrSchemaInvalid)
	}}
	svc := usecase.NewMatrixService(llm, &fakeExtractor{}, newFakeCandidateMatrixRepo(), newFakeJobMatrixRepo(), newFakeCvFileRepo())

	_, err := svc.BuildCandidateMatrix(context.Background(), "c1", "f1", "cv text")
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
	assert.Equal(t, int64(2), llm.matrixCalls.Load())
}

func TestBuildCandidateMatrix_NoRetryOnUnavailable(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{matrixFn: func(string) (domain.CandidateMatrix, error) {
		return domain.CandidateMatrix{}, domain.ErrUpstreamUnavailable
	}}
	svc := usecase.NewMatrixService(llm, &fakeExtractor{}, newFakeCandidateMatrixRepo(), newFakeJobMatrixRepo(), newFakeCvFileRepo())

	_, err := svc.BuildCandidateMatrix(context.Background(), "c1", "f1", "cv text")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, int64(1), llm.matrixCalls.Load())
}

func TestBuildCandidateMatrixFromFile_UsesNewestCv(t *testing.T) {
	t.Parallel()
	cvFiles := newFakeCvFileRepo()
	_, err := cvFiles.Create(context.Background(), domain.CvFile{CandidateID: "c1", FilePath: "/old.pdf"})
	require.NoError(t, err)
	newID, err := cvFiles.Create(context.Background(), domain.CvFile{CandidateID: "c1", FilePath: "/new.pdf"})
	require.NoError(t, err)

	extractor := &fakeExtractor{pdfFn: func(path string) (string, error) {
		return "text from " + path, nil
	}}
	matrices := newFakeCandidateMatrixRepo()
	svc := usecase.NewMatrixService(&fakeLLM{}, extractor, matrices, newFakeJobMatrixRepo(), cvFiles)

	m, err := svc.BuildCandidateMatrixFromFile(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, newID, m.CvFileID)
}

func TestValidateJobMatrix(t *testing.T) {
	t.Parallel()
	ok := domain.JobMatrix{
		RequiredSkills:   []domain.WeightedSkill{{Skill: "Go", Weight: 90}},
		ExperienceWeight: 30, LocationWeight: 10, DomainWeight: 10,
	}
	assert.NoError(t, usecase.ValidateJobMatrix(ok))

	tooHeavy := ok
	tooHeavy.ExperienceWeight = 80
	assert.ErrorIs(t, usecase.ValidateJobMatrix(tooHeavy), domain.ErrInvalidArgument)

	negative := ok
	negative.LocationWeight = -1
	assert.ErrorIs(t, usecase.ValidateJobMatrix(negative), domain.ErrInvalidArgument)

	badSkill := ok
	badSkill.PreferredSkills = []domain.WeightedSkill{{Skill: "", Weight: 50}}
	assert.ErrorIs(t, usecase.ValidateJobMatrix(badSkill), domain.ErrInvalidArgument)

	badWeight := ok
	badWeight.RequiredSkills = []domain.WeightedSkill{{Skill: "Go", Weight: 120}}
	assert.ErrorIs(t, usecase.ValidateJobMatrix(badWeight), domain.ErrInvalidArgument)
}
