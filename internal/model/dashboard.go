package model

type DashboardSummary struct {
	Certifications map[string]int `json:"certifications"`
	Attempts       map[string]int `json:"attempts"`
	Enrollments    map[string]int `json:"enrollments"`
	Courses        int            `json:"courses"`
}
