package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/backend"
)

func validSteps() []Step {
	return []Step{
		PersonalStep{FullName: "Asha Rao", DOB: "1994-02-11", Gender: "Female", Address: "12 MG Road", Email: "asha@payflow.test", Phone: "9876543210", EmergencyContact: "9123456780"},
		EducationStep{Qualification: "B.Com", Institution: "Christ University", GraduationYear: 2015},
		JobStep{Department: "Finance", Role: "EMPLOYEE", Position: "Analyst", JoiningDate: "2024-07-01", ManagerID: "11"},
		ExperienceStep{HasExperience: true, Experiences: []Experience{{Years: 3, Role: "Associate", Company: "Acme"}}},
		SkillsStep{Skills: []string{"Excel"}, Languages: []string{"English", "Kannada"}},
	}
}

func TestPersonalStepReportsFieldIssues(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	_, err := svc.SaveStep(context.Background(), "s1", PersonalStep{FullName: "Asha", Email: "not-an-email", Gender: "Unknown"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepPersonal, verr.Step)

	fields := map[string]string{}
	for _, issue := range verr.Issues {
		fields[issue.Field] = issue.Reason
	}
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be one of Male Female Other", fields["gender"])
	assert.Equal(t, "is required", fields["dob"])
	assert.NotContains(t, fields, "fullName")

	d, err := svc.Draft(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, d.Has(StepPersonal))
}

func TestStepsMustBeSavedInOrder(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	steps := validSteps()

	_, err := svc.SaveStep(context.Background(), "s1", steps[2])
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	d, err := svc.SaveStep(context.Background(), "s1", steps[0])
	require.NoError(t, err)
	assert.Equal(t, StepEducation, d.Next())
}

func TestExperienceRequiredOnlyWhenClaimed(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	assert.NoError(t, svc.check(ExperienceStep{HasExperience: false}))

	err := svc.check(ExperienceStep{HasExperience: true})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "experiences", verr.Issues[0].Field)

	err = svc.check(ExperienceStep{HasExperience: true, Experiences: []Experience{{Years: 2}}})
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)
}

func TestSubmitPostsAssembledEmployeeAndClearsDraft(t *testing.T) {
	var posted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/employee/onboard", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	store := NewMemoryStore()
	svc := NewService(store, backend.New(srv.URL, time.Second))
	ctx := context.Background()

	_, err := svc.Submit(ctx, "tok", "s1")
	assert.ErrorIs(t, err, ErrIncomplete)

	for _, step := range validSteps() {
		_, err := svc.SaveStep(ctx, "s1", step)
		require.NoError(t, err)
	}
	emp, err := svc.Submit(ctx, "tok", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", emp.FullName)

	assert.Equal(t, "Asha Rao", posted["fullName"])
	assert.Equal(t, "Finance", posted["department"])
	assert.Equal(t, true, posted["hasExperience"])
	assert.Len(t, posted["experiences"], 1)
	assert.Equal(t, []any{"English", "Kannada"}, posted["languages"])

	d, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, d.Missing(), len(Order))
}

func TestDecodeStep(t *testing.T) {
	step, err := DecodeStep(StepJob, []byte(`{"department":"Ops","role":"HR","position":"Lead","joiningDate":"2024-01-02"}`))
	require.NoError(t, err)
	job, ok := step.(JobStep)
	require.True(t, ok)
	assert.Equal(t, "Ops", job.Department)

	_, err = DecodeStep("payroll", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestRedisDraftStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	steps := validSteps()
	d := Draft{}.with(steps[0])
	require.NoError(t, store.Save(ctx, "draft-test", d))

	got, err := store.Load(ctx, "draft-test")
	require.NoError(t, err)
	require.NotNil(t, got.Personal)
	assert.Equal(t, "Asha Rao", got.Personal.FullName)

	require.NoError(t, store.Delete(ctx, "draft-test"))
	got, err = store.Load(ctx, "draft-test")
	require.NoError(t, err)
	assert.Nil(t, got.Personal)
}
