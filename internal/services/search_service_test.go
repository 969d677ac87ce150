package services

import (
	"testing"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearchData(t *testing.T) SearchService {
	db := setupTestDB(t)

	courses := []models.Course{
		{Title: "Algebra I", Description: "Introductory algebra"},
		{Title: "Linear Algebra", Description: "Vector spaces and matrices"},
		{Title: "Art History", Description: "From cave paintings onwards"},
	}
	for i := range courses {
		require.NoError(t, db.Create(&courses[i]).Error)
	}

	news := []models.NewsItem{
		{UserID: 1, Title: "Algebra exam moved", Content: "New date announced"},
		{UserID: 1, Title: "Library hours", Content: "Open late during exam week"},
	}
	for i := range news {
		require.NoError(t, db.Create(&news[i]).Error)
	}

	return NewSearchService(db)
}

func TestSearchMatchesTitleAndContent(t *testing.T) {
	svc := seedSearchData(t)

	results, err := svc.Search("algebra")
	require.NoError(t, err)

	assert.Len(t, results.Courses, 2)
	assert.Len(t, results.News, 1)
}

func TestSearchMatchesDescription(t *testing.T) {
	svc := seedSearchData(t)

	results, err := svc.Search("matrices")
	require.NoError(t, err)

	require.Len(t, results.Courses, 1)
	assert.Equal(t, "Linear Algebra", results.Courses[0].Title)
	assert.Empty(t, results.News)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := seedSearchData(t)

	results, err := svc.Search("   ")
	require.NoError(t, err)

	assert.Empty(t, results.Courses)
	assert.Empty(t, results.News)
}

func TestSearchNoMatches(t *testing.T) {
	svc := seedSearchData(t)

	results, err := svc.Search("quantum")
	require.NoError(t, err)

	assert.Empty(t, results.Courses)
	assert.Empty(t, results.News)
}
