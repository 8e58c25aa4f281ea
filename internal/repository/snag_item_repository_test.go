package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prop-ie/snag-api/internal/models"
)

func TestSnagItemRepositoryCompletingItemStampsDateAndLogsChange(t *testing.T) {
	db, mock, cleanup := newSnagRepoMock(t)
	defer cleanup()
	repo := NewSnagItemRepository(db)

	created := fixedNow.AddDate(0, 0, -4)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM snag_items WHERE id = \$1 AND snag_list_id = \$2 FOR UPDATE`).
		WithArgs("item-1", "list-1").
		WillReturnRows(snagItemRows().
			AddRow("item-1", "list-1", "Loose socket", "", "Bedroom", "OPEN", "HIGH", "Electrical", nil, nil, nil, nil, "user-1", created, created))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE snag_items SET completed_date = $1, status = $2, updated_at = $3 WHERE id = $4 AND snag_list_id = $5 RETURNING`)).
		WithArgs(fixedNow, "COMPLETED", fixedNow, "item-1", "list-1").
		WillReturnRows(snagItemRows().
			AddRow("item-1", "list-1", "Loose socket", "", "Bedroom", "COMPLETED", "HIGH", "Electrical", nil, nil, fixedNow, nil, "user-1", created, fixedNow))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO snag_item_updates`)).
		WithArgs(sqlmock.AnyArg(), "item-1", "STATUS_CHANGE", "Status changed from OPEN to COMPLETED", "user-2", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE snag_lists SET updated_at = $1 WHERE id = $2`)).
		WithArgs(fixedNow, "list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_logs`)).
		WithArgs(sqlmock.AnyArg(), "user-2", models.AuditActionSnagItemUpdated, models.AuditResourceSnagItem, "item-1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status := models.SnagItemStatusCompleted
	priority := models.SnagPriorityHigh
	result, err := repo.Update(context.Background(), "list-1", "item-1", SnagItemPatch{Status: &status, Priority: &priority}, AuditActor{UserID: "user-2"}, fixedNow)
	require.NoError(t, err)
	require.NotNil(t, result.Current.CompletedDate)
	assert.Equal(t, fixedNow, *result.Current.CompletedDate)
	require.Len(t, result.Logged, 1)
	assert.Equal(t, models.SnagUpdateStatusChange, result.Logged[0].UpdateType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnagItemRepositoryClearingUnsetAssigneeLogsNothing(t *testing.T) {
	db, mock, cleanup := newSnagRepoMock(t)
	defer cleanup()
	repo := NewSnagItemRepository(db)

	created := fixedNow.AddDate(0, 0, -2)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM snag_items WHERE id = \$1 AND snag_list_id = \$2 FOR UPDATE`).
		WithArgs("item-1", "list-1").
		WillReturnRows(snagItemRows().
			AddRow("item-1", "list-1", "Loose socket", "", "Bedroom", "OPEN", "HIGH", "Electrical", nil, nil, nil, nil, "user-1", created, created))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE snag_items SET title = $1, updated_at = $2 WHERE id = $3 AND snag_list_id = $4 RETURNING`)).
		WithArgs("Loose socket cover", fixedNow, "item-1", "list-1").
		WillReturnRows(snagItemRows().
			AddRow("item-1", "list-1", "Loose socket cover", "", "Bedroom", "OPEN", "HIGH", "Electrical", nil, nil, nil, nil, "user-1", created, fixedNow))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE snag_lists SET updated_at = $1 WHERE id = $2`)).
		WithArgs(fixedNow, "list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_logs`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	title := "Loose socket cover"
	unassigned := ""
	result, err := repo.Update(context.Background(), "list-1", "item-1", SnagItemPatch{Title: &title, AssignedTo: &unassigned}, AuditActor{UserID: "user-2"}, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, result.Logged)
	assert.Nil(t, result.Current.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnagItemRepositoryListRecentUpdates(t *testing.T) {
	db, mock, cleanup := newSnagRepoMock(t)
	defer cleanup()
	repo := NewSnagItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`i.title AS item_title`)).
		WithArgs("list-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "snag_item_id", "update_type", "content", "author_id", "created_at", "item_title"}).
			AddRow("upd-2", "item-1", "COMMENT", "Contractor booked", "user-3", fixedNow, "Loose socket").
			AddRow("upd-1", "item-2", "STATUS_CHANGE", "Status changed", "user-2", fixedNow.Add(-1), "Leaking tap"))

	entries, err := repo.ListRecentUpdates(context.Background(), "list-1", 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Loose socket", entries[0].ItemTitle)
	assert.Equal(t, "upd-2", entries[0].ID)
	assert.Equal(t, models.SnagUpdateComment, entries[0].UpdateType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnagItemRepositoryAddUpdate(t *testing.T) {
	db, mock, cleanup := newSnagRepoMock(t)
	defer cleanup()
	repo := NewSnagItemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO snag_item_updates`)).
		WithArgs(sqlmock.AnyArg(), "item-1", "COMMENT", "Replaced fitting", "user-4", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	update := &models.SnagItemUpdate{SnagItemID: "item-1", UpdateType: models.SnagUpdateComment, Content: "Replaced fitting", AuthorID: "user-4", CreatedAt: fixedNow}
	require.NoError(t, repo.AddUpdate(context.Background(), update))
	assert.NotEmpty(t, update.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
