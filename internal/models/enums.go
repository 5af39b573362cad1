package models

// Priorities is the P0 (critical) through P5 (backlog) scale shared by
// requirements, stories, test cases, and defects.
var Priorities = []string{"P0", "P1", "P2", "P3", "P4", "P5"}

// ValidPriority reports whether p is on the P0-P5 scale.
func ValidPriority(p string) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// TaskPriorities is the coarse scale used by tasks.
var TaskPriorities = []string{"high", "medium", "low"}

// ValidTaskPriority reports whether p is a task priority.
func ValidTaskPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}
