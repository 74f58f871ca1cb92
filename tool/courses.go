package tool

import (
	"fmt"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/store"
)

type enrollArgs struct {
	CourseCode string `json:"course_code" description:"Catalog course code, e.g. CS301"`
	Semester   string `json:"semester,omitempty" description:"Semester label, e.g. 2026-Fall"`
}

type unenrollArgs struct {
	CourseCode string `json:"course_code" description:"Catalog course code to drop"`
}

// RegisterCourseTools binds the catalog / enrollment / academic history
// capabilities onto the registry.
func RegisterCourseTools(r *Registry, academic *store.AcademicStore) {
	r.RegisterReadOnly(NewFunctionTool(
		"list_available_courses",
		"List the course catalog with codes and credits",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			courses, err := academic.ListCourses(tc.Context())
			if err != nil {
				return nil, err
			}
			if len(courses) == 0 {
				return "The course catalog is empty.", nil
			}
			out := fmt.Sprintf("%d course(s) available:\n", len(courses))
			for _, c := range courses {
				out += fmt.Sprintf("- %s: %s (%.1f credits, %s)\n", c.Code, c.Name, c.Credits, c.Semester)
			}
			return out, nil
		},
	))

	r.RegisterReadOnly(NewFunctionTool(
		"list_my_courses",
		"List the user's active course enrollments",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			enrolled, err := academic.Enrolled(tc.Context(), tc.UserID())
			if err != nil {
				return nil, err
			}
			if len(enrolled) == 0 {
				return "Not enrolled in any courses.", nil
			}
			out := fmt.Sprintf("Enrolled in %d course(s):\n", len(enrolled))
			for _, c := range enrolled {
				out += fmt.Sprintf("- %s: %s (%.1f credits)\n", c.CourseCode, c.CourseName, c.Credits)
			}
			return out, nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"enroll_in_course",
		"Enroll the user in a catalog course",
		enrollArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			code := argString(args, "course_code")
			enrolled, err := academic.Enroll(tc.Context(), tc.UserID(), code, argString(args, "semester"))
			if err != nil {
				return nil, err
			}
			if !enrolled {
				return fmt.Sprintf("Already enrolled in %s.", code), nil
			}
			return fmt.Sprintf("Enrolled in %s.", code), nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"unenroll_from_course",
		"Drop the user's active enrollment in a course",
		unenrollArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			code := argString(args, "course_code")
			removed, err := academic.Unenroll(tc.Context(), tc.UserID(), code)
			if err != nil {
				return nil, err
			}
			if !removed {
				return fmt.Sprintf("No active enrollment in %s.", code), nil
			}
			return fmt.Sprintf("Unenrolled from %s.", code), nil
		},
	))

	r.RegisterReadOnly(NewFunctionTool(
		"get_academic_history",
		"Get the user's full academic history with per-semester grades and cumulative GPA",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			hist, err := academic.History(tc.Context(), tc.UserID())
			if err != nil {
				return nil, err
			}
			if len(hist.Semesters) == 0 {
				return "No academic history recorded.", nil
			}
			out := ""
			for _, sem := range hist.Semesters {
				out += fmt.Sprintf("%s:\n", sem.Semester)
				for _, cg := range sem.Courses {
					grade := "ungraded"
					if cg.GradePoint != nil {
						grade = fmt.Sprintf("%.1f (%s)", *cg.GradePoint, cg.LetterGrade)
					}
					out += fmt.Sprintf("- %s %s, %.1f credits, %s\n", cg.CourseCode, cg.CourseName, cg.Credits, grade)
				}
			}
			out += fmt.Sprintf("Cumulative GPA: %.2f over %.1f graded credits.\n", hist.CumulativeGPA, hist.TotalCredits)
			return out, nil
		},
	))
}
