package tech

// Seed returns the default collection used when nothing has been persisted
// yet, and after a clear. Each call returns a fresh copy.
func Seed() []Item {
	return []Item{
		{
			ID:          "1",
			Title:       "React Components",
			Description: "Functional and class components and how their lifecycle works",
			Category:    "React Basics",
			Status:      StatusCompleted,
			Notes: []Note{
				{ID: "1", Text: "Learn functional components", Completed: true},
				{ID: "2", Text: "Understand the component lifecycle", Completed: true},
			},
		},
		{
			ID:          "2",
			Title:       "JSX Syntax",
			Description: "JSX syntax and how it differs from plain HTML",
			Category:    "React Basics",
			Status:      StatusInProgress,
			Notes: []Note{
				{ID: "1", Text: "JSX expressions", Completed: true},
				{ID: "2", Text: "Conditional rendering", Completed: false},
			},
		},
		{
			ID:          "3",
			Title:       "State Management",
			Description: "Component state with useState and useReducer",
			Category:    "Advanced React",
			Status:      StatusNotStarted,
			Notes:       []Note{},
		},
		{
			ID:          "4",
			Title:       "Props and Data Flow",
			Description: "Passing data between components through props",
			Category:    "React Basics",
			Status:      StatusNotStarted,
			Notes:       []Note{},
		},
	}
}
