package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownStep    = errors.New("unknown onboarding step")
	ErrStepOutOfOrder = errors.New("complete the earlier onboarding steps first")
	ErrIncomplete     = errors.New("onboarding is not complete")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists the fields that kept a step from being accepted.
type ValidationError struct {
	Step   StepName
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("onboarding step %s is invalid", e.Step)
}

type Backend interface {
	Post(ctx context.Context, path, token string, body, out any) error
}

type Service struct {
	store    DraftStore
	backend  Backend
	validate *validator.Validate
}

func NewService(store DraftStore, b Backend) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{store: store, backend: b, validate: v}
}

// DecodeStep parses a step payload into its typed form.
func DecodeStep(name StepName, raw []byte) (Step, error) {
	switch name {
	case StepPersonal:
		return decode[PersonalStep](name, raw)
	case StepEducation:
		return decode[EducationStep](name, raw)
	case StepJob:
		return decode[JobStep](name, raw)
	case StepExperience:
		return decode[ExperienceStep](name, raw)
	case StepSkills:
		return decode[SkillsStep](name, raw)
	}
	return nil, ErrUnknownStep
}

func decode[T Step](name StepName, raw []byte) (Step, error) {
	var s T
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode %s step: %w", name, err)
	}
	return s, nil
}

func (s *Service) check(step Step) error {
	err := s.validate.Struct(step)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Step: step.Name()}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out.Issues = append(out.Issues, FieldIssue{Field: field, Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a valid date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of " + fe.Param()
	case "numeric":
		return "must contain digits only"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

func (s *Service) Draft(ctx context.Context, sessionID string) (Draft, error) {
	return s.store.Load(ctx, sessionID)
}

// SaveStep validates a step and records it. Earlier steps must already be saved;
// re-saving a completed step is allowed.
func (s *Service) SaveStep(ctx context.Context, sessionID string, step Step) (Draft, error) {
	d, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Draft{}, err
	}
	for _, name := range Order {
		if name == step.Name() {
			break
		}
		if !d.Has(name) {
			return d, ErrStepOutOfOrder
		}
	}
	if err := s.check(step); err != nil {
		return d, err
	}
	d = d.with(step)
	if err := s.store.Save(ctx, sessionID, d); err != nil {
		return d, err
	}
	return d, nil
}

// Submit posts the assembled employee and clears the draft on success.
func (s *Service) Submit(ctx context.Context, token, sessionID string) (Employee, error) {
	d, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Employee{}, err
	}
	if missing := d.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		return Employee{}, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(names, ", "))
	}
	emp := d.employee()
	if err := s.backend.Post(ctx, "/api/employee/onboard", token, emp, nil); err != nil {
		return Employee{}, fmt.Errorf("onboard employee: %w", err)
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return emp, err
	}
	return emp, nil
}

func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
