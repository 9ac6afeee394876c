package models

// DepartmentTrait is a weighted trait a department looks for.
type DepartmentTrait struct {
	Trait      string  `json:"trait"`
	Weight     float64 `json:"weight"`
	Importance string  `json:"importance"`
}

// Department describes one festival department.
type Department struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	CoreResponsibilities []string          `json:"core_responsibilities"`
	SkillsRequired       []string          `json:"skills_required"`
	SoftSkillsRequired   []string          `json:"soft_skills_required"`
	SkillsPerksGained    []string          `json:"skills_perks_gained"`
	ExampleTasks         []string          `json:"example_tasks"`
	TargetAudience       []string          `json:"target_audience"`
	TopTraits            []DepartmentTrait `json:"top_traits,omitempty"`
}

// DepartmentQuery filters the department listing.
type DepartmentQuery struct {
	IncludeTraits bool
	Search        string
}

// DepartmentList is the payload of GET /departments.
type DepartmentList struct {
	Departments    []Department `json:"departments"`
	Total          int          `json:"total"`
	SearchApplied  bool         `json:"search_applied"`
	TraitsIncluded bool         `json:"traits_included"`
}

// DepartmentRef is a short id/name reference.
type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SimilarDepartment is one entry of the similarity listing.
type SimilarDepartment struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	SimilarityScore      float64  `json:"similarity_score"`
	CoreResponsibilities []string `json:"core_responsibilities"`
	Relationship         string   `json:"relationship"`
}

// SimilarDepartments is the payload of GET /departments/{id}/similar.
type SimilarDepartments struct {
	TargetDepartment   DepartmentRef       `json:"target_department"`
	SimilarDepartments []SimilarDepartment `json:"similar_departments"`
	TotalFound         int                 `json:"total_found"`
}
