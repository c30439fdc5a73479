package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.AlertModel{}, &model.SubmissionModel{}, &model.AuditLogModel{})
	require.NoError(t, err)

	return db
}

// TestAuditLogRepository_SaveAndFind 测试保存和查询审计日志
func TestAuditLogRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAuditLogRepository(setupTestDB(t))

	base := time.Now()
	entries := []*model.AuditLogModel{
		{ID: "audit-1", UserID: "a@x.com", Action: "submit", ResourceType: "task", ResourceID: "task-1", Details: []byte(`{}`), CreatedAt: base},
		{ID: "audit-2", UserID: "a@x.com", Action: "submit_failed", ResourceType: "task", ResourceID: "task-2", Details: []byte(`{}`), CreatedAt: base.Add(time.Second)},
		{ID: "audit-3", UserID: "b@x.com", Action: "submit", ResourceType: "task", ResourceID: "task-1", Details: []byte(`{}`), CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	byUser, err := repo.FindByUserID(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "audit-2", byUser[0].ID)

	byResource, err := repo.FindByResource(ctx, "task", "task-1")
	require.NoError(t, err)
	require.Len(t, byResource, 2)
	assert.Equal(t, "audit-3", byResource[0].ID)
}

// TestAlertRepository_ActiveAndDismiss 测试告警查询和关闭
func TestAlertRepository_ActiveAndDismiss(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAlertRepository(setupTestDB(t))

	base := time.Now()
	for i, id := range []string{"alert-1", "alert-2", "alert-3"} {
		require.NoError(t, repo.Save(ctx, &model.AlertModel{
			ID: id, UserID: "a@x.com", Type: "api-error", Kind: "status", Status: 500,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Save(ctx, &model.AlertModel{
		ID: "alert-other", UserID: "b@x.com", Type: "api-error", Kind: "transport", CreatedAt: base,
	}))

	active, err := repo.FindActiveByUser(ctx, "a@x.com", 2)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alert-3", active[0].ID)

	ok, err := repo.Dismiss(ctx, "a@x.com", "alert-3")
	require.NoError(t, err)
	assert.True(t, ok)

	// 其他用户的告警不可关闭
	ok, err = repo.Dismiss(ctx, "a@x.com", "alert-other")
	require.NoError(t, err)
	assert.False(t, ok)

	active, err = repo.FindActiveByUser(ctx, "a@x.com", 0)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err := repo.DismissAll(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err = repo.FindActiveByUser(ctx, "a@x.com", 0)
	require.NoError(t, err)
	assert.Empty(t, active)

	other, err := repo.FindActiveByUser(ctx, "b@x.com", 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

// TestSubmissionRepository_Lifecycle 测试提交记录生命周期
func TestSubmissionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSubmissionRepository(setupTestDB(t))

	sub := &model.SubmissionModel{
		ID: "sub-1", TaskID: "task-1", FormName: "review", SubmittedBy: "a@x.com",
		Status: model.SubmissionStatusPending, CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, sub))

	require.NoError(t, repo.MarkCompleted(ctx, "sub-1", model.SubmissionStatusSucceeded, ""))

	found, err := repo.FindByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSucceeded, found.Status)
	assert.NotNil(t, found.CompletedAt)

	count, err := repo.CountSucceeded(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	list, err := repo.FindByTaskID(ctx, "task-1", "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// 其他用户看不到该记录
	list, err = repo.FindByTaskID(ctx, "task-1", "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestRepository_Purge 测试过期数据清理
func TestRepository_Purge(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	alerts := repository.NewAlertRepository(db)
	audits := repository.NewAuditLogRepository(db)

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	require.NoError(t, alerts.Save(ctx, &model.AlertModel{ID: "old", UserID: "a@x.com", Type: "api-error", Kind: "status", Dismissed: true, DismissedAt: &old, CreatedAt: old}))
	require.NoError(t, alerts.Save(ctx, &model.AlertModel{ID: "recent", UserID: "a@x.com", Type: "api-error", Kind: "status", Dismissed: true, DismissedAt: &now, CreatedAt: now}))
	require.NoError(t, alerts.Save(ctx, &model.AlertModel{ID: "active", UserID: "a@x.com", Type: "api-error", Kind: "status", CreatedAt: old}))

	n, err := alerts.PurgeDismissedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := alerts.FindActiveByUser(ctx, "a@x.com", 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].ID)

	require.NoError(t, audits.Save(ctx, &model.AuditLogModel{ID: "l-old", UserID: "u", Action: "submit", ResourceType: "task", ResourceID: "t", Details: []byte(`{}`), CreatedAt: old}))
	require.NoError(t, audits.Save(ctx, &model.AuditLogModel{ID: "l-new", UserID: "u", Action: "submit", ResourceType: "task", ResourceID: "t", Details: []byte(`{}`), CreatedAt: now}))

	n, err = audits.PurgeBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
