package catalog

import "fmt"

// Topic is one syllabus entry of a module within a session.
type Topic struct {
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// moduleTopics holds the official syllabus: module ID to session ID to ordered
// topic list. Durations sum to the module's session split.
var moduleTopics = map[int]map[int][]Topic{
	1: {
		1: {
			{Title: "Pedagogical assessment", Duration: 2},
			{Title: "Assessment types, purposes and objectives", Duration: 1},
			{Title: "Assessment domains, functions and criteria", Duration: 1},
			{Title: "Follow-up and assessment 1", Duration: 1},
			{Title: "Follow-up and assessment 2", Duration: 2},
			{Title: "Pedagogical remediation", Duration: 2},
			{Title: "Importance and objectives of remediation", Duration: 1},
			{Title: "Remediation approaches", Duration: 2},
			{Title: "Remediation and differentiated pedagogy 1", Duration: 1},
		},
		2: {
			{Title: "Remediation and differentiated pedagogy 2", Duration: 2},
			{Title: "Remediation tools and methods", Duration: 3},
			{Title: "Running a remediation session", Duration: 3},
			{Title: "Remediation sheets and assessment grids", Duration: 2},
			{Title: "Evaluating remediation effectiveness and continuous follow-up", Duration: 2},
		},
	},
	2: {
		1: {
			{Title: "Introduction to teaching curricula", Duration: 3},
			{Title: "Principles underlying the curricula", Duration: 3},
			{Title: "Curriculum components", Duration: 4},
		},
		2: {
			{Title: "Curriculum characteristics and types", Duration: 3},
			{Title: "Professional competencies of the teacher", Duration: 4},
			{Title: "Twenty-first century skills", Duration: 3},
		},
	},
	3: {
		1: {
			{Title: "Educational management and its governing texts", Duration: 2},
			{Title: "Types, objectives and principles of educational management", Duration: 2},
			{Title: "Educational management tools and methods", Duration: 3},
		},
		2: {
			{Title: "Means and mechanisms of pedagogical management", Duration: 2},
			{Title: "General organisation of educational work in the institution", Duration: 2},
			{Title: "Effective communication in educational meetings", Duration: 2},
			{Title: "School mediation", Duration: 2},
		},
	},
	6: {
		1: {
			{Title: "Pedagogical supervision", Duration: 3},
			{Title: "Pedagogical follow-up", Duration: 3},
			{Title: "Educational research 1", Duration: 1},
		},
		2: {
			{Title: "Educational research 2", Duration: 2},
			{Title: "Training engineering 1", Duration: 3},
			{Title: "Training engineering 2", Duration: 3},
		},
	},
	7: {
		1: {
			{Title: "Educational management and its governing texts", Duration: 2},
			{Title: "Management types (pedagogical, administrative, financial)", Duration: 2},
			{Title: "Factors of good educational management", Duration: 2},
			{Title: "Educational management tools and methods", Duration: 1},
		},
		2: {
			{Title: "Means and mechanisms of educational management", Duration: 2},
			{Title: "General organisation of educational work", Duration: 2},
			{Title: "The concept of educational facilitation", Duration: 1},
			{Title: "Educational facilitation techniques", Duration: 1},
			{Title: "Educational facilitation means", Duration: 1},
			{Title: "Activating educational councils", Duration: 1},
		},
	},
	4: {
		1: {
			{Title: "Digital transformation in education", Duration: 2},
			{Title: "Digital competencies", Duration: 2},
			{Title: "Interactive digital learning design 1", Duration: 1},
		},
		2: {
			{Title: "Interactive digital learning design 2", Duration: 1},
			{Title: "Data analysis", Duration: 2},
			{Title: "Distance teaching", Duration: 2},
		},
	},
	5: {
		1: {
			{Title: "Conceptual introduction", Duration: 1},
			{Title: "Civil-servant statute 1", Duration: 2},
			{Title: "Civil-servant statute 2", Duration: 2},
		},
		2: {
			{Title: "Exercising union rights", Duration: 2},
			{Title: "Preventing collective labour disputes", Duration: 2},
			{Title: "Professional ethics", Duration: 1},
		},
	},
}

// Syllabus returns one module's ordered topic list for a session.
func Syllabus(moduleID, sessionID int) ([]Topic, error) {
	sessions, ok := moduleTopics[moduleID]
	if !ok {
		return nil, fmt.Errorf("module %d has no syllabus", moduleID)
	}
	topics, ok := sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("module %d has no syllabus for session %d", moduleID, sessionID)
	}
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out, nil
}
