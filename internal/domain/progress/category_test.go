package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCategoryPerformance_AveragesProgress(t *testing.T) {
	courses := []CourseSummary{
		{CourseID: "c1", Category: "Marketing", Percentage: 40, TimeSpentMinutes: 100},
		{CourseID: "c2", Category: "Marketing", Percentage: 60, Completed: false, TimeSpentMinutes: 200},
	}

	result := ComputeCategoryPerformance("student-1", courses)

	require.Len(t, result, 1)
	assert.Equal(t, float64(50), result[0].AverageProgress)
	assert.Equal(t, 2, result[0].TotalCourses)
	assert.Equal(t, 0, result[0].CompletedCourses)
	assert.Equal(t, 300, result[0].TotalStudyTimeMinutes)
	assert.Nil(t, result[0].AverageScore)
}

func TestComputeCategoryPerformance_NoEnrollmentsNoRows(t *testing.T) {
	result := ComputeCategoryPerformance("student-1", nil)
	assert.Empty(t, result)
}

func TestComputeCategoryPerformance_SortedByCategory(t *testing.T) {
	courses := []CourseSummary{
		{CourseID: "c1", Category: "Programming", Percentage: 10},
		{CourseID: "c2", Category: "Design", Percentage: 20},
		{CourseID: "c3", Category: "Marketing", Percentage: 30},
	}

	result := ComputeCategoryPerformance("student-1", courses)

	require.Len(t, result, 3)
	assert.Equal(t, "Design", string(result[0].Category))
	assert.Equal(t, "Marketing", string(result[1].Category))
	assert.Equal(t, "Programming", string(result[2].Category))
}

func TestComputeCategoryPerformance_CompletedAndScores(t *testing.T) {
	courses := []CourseSummary{
		{CourseID: "c1", Category: "Marketing", Percentage: 100, Completed: true, QuizScoreSum: 180, QuizScoreCount: 2},
		{CourseID: "c2", Category: "Marketing", Percentage: 50, QuizScoreSum: 60, QuizScoreCount: 1},
	}

	result := ComputeCategoryPerformance("student-1", courses)

	require.Len(t, result, 1)
	assert.Equal(t, 1, result[0].CompletedCourses)
	require.NotNil(t, result[0].AverageScore)
	assert.Equal(t, float64(80), *result[0].AverageScore)
}
