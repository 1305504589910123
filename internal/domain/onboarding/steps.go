package onboarding

type StepName string

const (
	StepPersonal   StepName = "personal"
	StepEducation  StepName = "education"
	StepJob        StepName = "job"
	StepExperience StepName = "experience"
	StepSkills     StepName = "skills"
)

// Order is the wizard sequence; a step can be saved only after every earlier one.
var Order = []StepName{StepPersonal, StepEducation, StepJob, StepExperience, StepSkills}

func ParseStep(raw string) (StepName, bool) {
	for _, s := range Order {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Step is one page of the wizard.
type Step interface {
	Name() StepName
}

type PersonalStep struct {
	FullName         string `json:"fullName" validate:"required,max=120"`
	DOB              string `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender           string `json:"gender" validate:"required,oneof=Male Female Other"`
	Address          string `json:"address" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required,min=7,max=15,numeric"`
	EmergencyContact string `json:"emergencyContact" validate:"required,min=7,max=15,numeric"`
}

type EducationStep struct {
	Qualification  string `json:"qualification" validate:"required"`
	Institution    string `json:"institution" validate:"required"`
	GraduationYear int    `json:"graduationYear" validate:"required,gte=1950,lte=2100"`
	Specialization string `json:"specialization"`
}

type JobStep struct {
	Department  string `json:"department" validate:"required"`
	Role        string `json:"role" validate:"required"`
	Position    string `json:"position" validate:"required"`
	JoiningDate string `json:"joiningDate" validate:"required,datetime=2006-01-02"`
	ManagerID   string `json:"managerId"`
}

type Experience struct {
	Years    int    `json:"years" validate:"gte=0,lte=60"`
	Role     string `json:"role" validate:"required"`
	Company  string `json:"company" validate:"required"`
	FromDate string `json:"fromDate" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `json:"toDate" validate:"omitempty,datetime=2006-01-02"`
}

type ExperienceStep struct {
	HasExperience bool         `json:"hasExperience"`
	Experiences   []Experience `json:"experiences" validate:"required_if=HasExperience true,dive"`
}

type SkillsStep struct {
	Certifications []string `json:"certifications" validate:"dive,required"`
	Skills         []string `json:"skills" validate:"required,min=1,dive,required"`
	Languages      []string `json:"languages" validate:"required,min=1,dive,required"`
}

func (PersonalStep) Name() StepName   { return StepPersonal }
func (EducationStep) Name() StepName  { return StepEducation }
func (JobStep) Name() StepName        { return StepJob }
func (ExperienceStep) Name() StepName { return StepExperience }
func (SkillsStep) Name() StepName     { return StepSkills }

// Draft holds the steps completed so far.
type Draft struct {
	Personal   *PersonalStep   `json:"personal,omitempty"`
	Education  *EducationStep  `json:"education,omitempty"`
	Job        *JobStep        `json:"job,omitempty"`
	Experience *ExperienceStep `json:"experience,omitempty"`
	Skills     *SkillsStep     `json:"skills,omitempty"`
}

func (d Draft) Has(name StepName) bool {
	switch name {
	case StepPersonal:
		return d.Personal != nil
	case StepEducation:
		return d.Education != nil
	case StepJob:
		return d.Job != nil
	case StepExperience:
		return d.Experience != nil
	case StepSkills:
		return d.Skills != nil
	}
	return false
}

// Step returns the saved step called name, or nil.
func (d Draft) Step(name StepName) Step {
	switch name {
	case StepPersonal:
		if d.Personal != nil {
			return *d.Personal
		}
	case StepEducation:
		if d.Education != nil {
			return *d.Education
		}
	case StepJob:
		if d.Job != nil {
			return *d.Job
		}
	case StepExperience:
		if d.Experience != nil {
			return *d.Experience
		}
	case StepSkills:
		if d.Skills != nil {
			return *d.Skills
		}
	}
	return nil
}

// Missing lists incomplete steps in wizard order.
func (d Draft) Missing() []StepName {
	var out []StepName
	for _, s := range Order {
		if !d.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Next is the first incomplete step, or "" when the draft is ready to submit.
func (d Draft) Next() StepName {
	if missing := d.Missing(); len(missing) > 0 {
		return missing[0]
	}
	return ""
}

func (d Draft) with(step Step) Draft {
	switch s := step.(type) {
	case PersonalStep:
		d.Personal = &s
	case EducationStep:
		d.Education = &s
	case JobStep:
		d.Job = &s
	case ExperienceStep:
		if !s.HasExperience {
			s.Experiences = nil
		}
		d.Experience = &s
	case SkillsStep:
		d.Skills = &s
	}
	return d
}

// Employee is the record posted to the backend once every step is complete.
type Employee struct {
	PersonalStep
	EducationStep
	JobStep
	ExperienceStep
	SkillsStep
}

func (d Draft) employee() Employee {
	return Employee{
		PersonalStep:   *d.Personal,
		EducationStep:  *d.Education,
		JobStep:        *d.Job,
		ExperienceStep: *d.Experience,
		SkillsStep:     *d.Skills,
	}
}
