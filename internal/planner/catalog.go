package planner

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Breaks is the fixed list of break labels a block can hold.
var Breaks = []string{"Lunch", "Break", "Recess", "Free Time"}

// Catalog seeds the subject and activity lists of new student plans.
type Catalog struct {
	DefaultBlockLength int                 `yaml:"default_block_length" json:"defaultBlockLength"`
	CoreSubjects       []string            `yaml:"core_subjects" json:"coreSubjects"`
	ExtendedSubjects   []string            `yaml:"extended_subjects" json:"extendedSubjects"`
	SubjectCourses     map[string][]string `yaml:"subject_courses" json:"subjectCourses"`
	Activities         []string            `yaml:"activities" json:"activities"`
	Breaks             []string            `yaml:"-" json:"breaks"`
}

// LoadCatalog reads a YAML catalog from path, or the built-in one when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	raw := defaultCatalogYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
		}
		raw = data
	}
	return parseCatalog(raw)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	catalog, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("planner: embedded catalog: %v", err))
	}
	return catalog
}

func parseCatalog(raw []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if catalog.DefaultBlockLength < 0 {
		return Catalog{}, fmt.Errorf("parse catalog: default_block_length must not be negative")
	}
	catalog.Breaks = cloneStrings(Breaks)
	return catalog, nil
}

// NewStudentPlan builds the empty default bundle for a student entering the planning flow.
func NewStudentPlan(planID, studentID string, catalog Catalog) models.StudentPlan {
	return models.StudentPlan{
		PlanID:           planID,
		StudentID:        studentID,
		Schedule:         models.NewWeekSchedule(catalog.DefaultBlockLength),
		CoreSubjects:     cloneStrings(catalog.CoreSubjects),
		ExtendedSubjects: cloneStrings(catalog.ExtendedSubjects),
		SubjectCourses:   cloneCourses(catalog.SubjectCourses),
		Activities:       cloneStrings(catalog.Activities),
		BlockAssignments: make(map[models.Weekday][]models.Block),
		UpdatedAt:        time.Now().UTC(),
	}
}

// ClassifySubject derives the block type of a subject label. Core subjects win over
// extended subjects, then activities, then breaks; unknown labels count as subjects.
func ClassifySubject(plan models.StudentPlan, subject string) models.BlockType {
	switch {
	case slices.Contains(plan.CoreSubjects, subject), slices.Contains(plan.ExtendedSubjects, subject):
		return models.BlockTypeSubject
	case slices.Contains(plan.Activities, subject):
		return models.BlockTypeActivity
	case slices.Contains(Breaks, subject):
		return models.BlockTypeBreak
	}
	return models.BlockTypeSubject
}
