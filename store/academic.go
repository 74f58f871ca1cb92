package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// AcademicStore serves the course catalog, enrollments and the derived
// academic history.
type AcademicStore struct {
	db *gorm.DB
}

// ListCourses returns the full catalog ordered by code.
func (a *AcademicStore) ListCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := a.db.WithContext(ctx).Order("code asc").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns one catalog entry by code.
func (a *AcademicStore) GetCourse(ctx context.Context, code string) (*Course, error) {
	var course Course
	if err := a.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Enroll upserts the (user, course) enrollment to active status. Returns
// false when the user is already actively enrolled; that outcome is an
// "already enrolled" notice for the tool layer, not a failure.
func (a *AcademicStore) Enroll(ctx context.Context, userID, courseCode, semester string) (bool, error) {
	if _, err := a.GetCourse(ctx, courseCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("unknown course %q", courseCode)
		}
		return false, fmt.Errorf("enroll: %w", err)
	}

	var existing Enrollment
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND course_code = ?", userID, courseCode).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == StatusActive {
			return false, nil
		}
		res := a.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
			"status":   StatusActive,
			"semester": semester,
		})
		if res.Error != nil {
			return false, fmt.Errorf("reactivate enrollment: %w", res.Error)
		}
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		enr := Enrollment{
			UserID:     userID,
			CourseCode: courseCode,
			Status:     StatusActive,
			Semester:   semester,
		}
		if err := a.db.WithContext(ctx).Create(&enr).Error; err != nil {
			return false, fmt.Errorf("create enrollment: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("enroll: %w", err)
	}
}

// Unenroll removes an active enrollment. Returns false when none existed.
func (a *AcademicStore) Unenroll(ctx context.Context, userID, courseCode string) (bool, error) {
	res := a.db.WithContext(ctx).
		Where("user_id = ? AND course_code = ? AND status = ?", userID, courseCode, StatusActive).
		Delete(&Enrollment{})
	if res.Error != nil {
		return false, fmt.Errorf("unenroll: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Enrolled returns the user's active enrollments joined with the catalog.
func (a *AcademicStore) Enrolled(ctx context.Context, userID string) ([]CourseGrade, error) {
	return a.joinedCourses(ctx, userID, StatusActive)
}

// CompleteCourse marks an enrollment completed and records its grade.
// GradePoint may be nil for a course taken pass/fail or still ungraded.
func (a *AcademicStore) CompleteCourse(ctx context.Context, userID, courseCode string, gradePoint *float64, letterGrade string) (bool, error) {
	res := a.db.WithContext(ctx).Model(&Enrollment{}).
		Where("user_id = ? AND course_code = ?", userID, courseCode).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"grade_point":  gradePoint,
			"letter_grade": letterGrade,
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete course: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// History joins enrollments to the catalog, groups by semester and computes
// the cumulative GPA. Courses without a grade point are excluded from both
// the numerator and the denominator.
func (a *AcademicStore) History(ctx context.Context, userID string) (*AcademicHistory, error) {
	type row struct {
		CourseCode  string
		CourseName  string
		Credits     float64
		Semester    string
		GradePoint  *float64
		LetterGrade string
	}
	var rows []row
	err := a.db.WithContext(ctx).Model(&Enrollment{}).
		Select("enrollments.course_code, courses.name as course_name, courses.credits, enrollments.semester, enrollments.grade_point, enrollments.letter_grade").
		Joins("JOIN courses ON courses.code = enrollments.course_code").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.semester asc, enrollments.course_code asc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("academic history: %w", err)
	}

	bySemester := map[string][]CourseGrade{}
	var qualityPoints, gradedCredits float64
	for _, r := range rows {
		cg := CourseGrade{
			CourseCode:  r.CourseCode,
			CourseName:  r.CourseName,
			Credits:     r.Credits,
			GradePoint:  r.GradePoint,
			LetterGrade: r.LetterGrade,
		}
		bySemester[r.Semester] = append(bySemester[r.Semester], cg)
		if r.GradePoint != nil {
			qualityPoints += *r.GradePoint * r.Credits
			gradedCredits += r.Credits
		}
	}

	semesters := make([]string, 0, len(bySemester))
	for s := range bySemester {
		semesters = append(semesters, s)
	}
	sort.Strings(semesters)

	hist := &AcademicHistory{UserID: userID}
	for _, s := range semesters {
		hist.Semesters = append(hist.Semesters, SemesterRecord{Semester: s, Courses: bySemester[s]})
	}
	if gradedCredits > 0 {
		hist.CumulativeGPA = qualityPoints / gradedCredits
	}
	hist.TotalCredits = gradedCredits
	return hist, nil
}

func (a *AcademicStore) joinedCourses(ctx context.Context, userID, status string) ([]CourseGrade, error) {
	var out []CourseGrade
	err := a.db.WithContext(ctx).Model(&Enrollment{}).
		Select("enrollments.course_code, courses.name as course_name, courses.credits, enrollments.grade_point, enrollments.letter_grade").
		Joins("JOIN courses ON courses.code = enrollments.course_code").
		Where("enrollments.user_id = ? AND enrollments.status = ?", userID, status).
		Order("enrollments.course_code asc").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return out, nil
}
