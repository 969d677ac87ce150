package services

import (
	"testing"
	"time"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPDNewsForUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNewsService(db)

	older := models.NewsItem{UserID: 6, Title: "Old notice", CreatedAt: time.Now().Add(-time.Hour)}
	newer := models.NewsItem{UserID: 6, Title: "Fresh notice", CreatedAt: time.Now()}
	other := models.NewsItem{UserID: 7, Title: "Someone else's notice"}
	for _, item := range []*models.NewsItem{&older, &newer, &other} {
		require.NoError(t, db.Create(item).Error)
	}

	items, err := svc.GetPDNewsForUser(6)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first
	assert.Equal(t, "Fresh notice", items[0].Title)
	assert.Equal(t, "Old notice", items[1].Title)
}

func TestGetPDNewsForUserEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNewsService(db)

	items, err := svc.GetPDNewsForUser(42)
	require.NoError(t, err)
	assert.Empty(t, items)
}
