package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client/clienttest"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCloser 记录关闭次数
type countingCloser struct {
	closed int
}

func (c *countingCloser) CloseOwner(*auth.Identity) int {
	c.closed++
	return 2
}

func newSessionService(t *testing.T, gw *clienttest.Gateway, closers ...service.OwnerCloser) (service.SessionService, service.AuditLogService) {
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(setupTestDB(t)))
	cache := auth.NewSessionCache[service.SessionSnapshot](time.Hour)
	return service.NewSessionService(cache, gw.Factory(nil), audits, testLogger(), closers...), audits
}

// TestSessionSnapshot 测试团队和员工 ID
func TestSessionSnapshot(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddTeam("42", map[string]interface{}{"id": 42, "name": "Border Team", "costcentre": 1001.5})
	gw.AddStaff("a@x.com", "staff-1")

	identity := clienttest.Identity("a@x.com", "team-a")
	identity.TeamID = "42"
	cl := gw.Client(nil, identity.Email)

	sessions, _ := newSessionService(t, gw)
	snapshot := sessions.Snapshot(context.Background(), cl, identity)

	assert.False(t, snapshot.TeamMissing)
	assert.Equal(t, "42", snapshot.Team["id"])
	assert.Equal(t, "1001.5", snapshot.Team["costcentre"])
	assert.Equal(t, "Border Team", snapshot.Team["name"])
	require.NotNil(t, snapshot.StaffID)
	assert.Equal(t, "staff-1", *snapshot.StaffID)
	assert.Equal(t, []string{"team-a"}, snapshot.Groups)
}

// TestSessionSnapshot_Cached 测试同一会话只计算一次
func TestSessionSnapshot_Cached(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddStaff("a@x.com", "staff-1")
	identity := clienttest.Identity("a@x.com")
	identity.TeamID = "42"
	cl := gw.Client(nil, identity.Email)

	sessions, _ := newSessionService(t, gw)
	first := sessions.Snapshot(context.Background(), cl, identity)
	second := sessions.Snapshot(context.Background(), cl, identity)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.Calls(clienttest.EndpointTeam))
	assert.Equal(t, 1, gw.Calls(clienttest.EndpointStaff))

	// 新会话重新计算
	renewed := *identity
	renewed.SessionState = "state-2"
	sessions.Snapshot(context.Background(), cl, &renewed)
	assert.Equal(t, 2, gw.Calls(clienttest.EndpointStaff))
}

// TestSessionSnapshot_TeamMissing 测试没有 team_id 声明
func TestSessionSnapshot_TeamMissing(t *testing.T) {
	gw := clienttest.NewGateway(t)
	identity := clienttest.Identity("a@x.com")
	cl := gw.Client(nil, identity.Email)

	sessions, _ := newSessionService(t, gw)
	snapshot := sessions.Snapshot(context.Background(), cl, identity)

	assert.True(t, snapshot.TeamMissing)
	assert.Empty(t, snapshot.Team)
	assert.NotNil(t, snapshot.Team)
	assert.Nil(t, snapshot.StaffID)
	assert.Equal(t, 0, gw.Calls(clienttest.EndpointTeam))
}

// TestSessionSnapshot_Failures 测试上游失败时降级
func TestSessionSnapshot_Failures(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.Fail(clienttest.EndpointTeam, http.StatusInternalServerError)
	gw.Fail(clienttest.EndpointStaff, http.StatusServiceUnavailable)

	identity := clienttest.Identity("a@x.com")
	identity.TeamID = "42"
	recorder := &clienttest.Recorder{}
	cl := gw.Client(recorder, identity.Email)

	sessions, _ := newSessionService(t, gw)
	snapshot := sessions.Snapshot(context.Background(), cl, identity)

	assert.Empty(t, snapshot.Team)
	assert.False(t, snapshot.TeamMissing)
	assert.Nil(t, snapshot.StaffID)
	assert.Len(t, recorder.Reports(), 2)
}

// TestSessionSnapshot_NoClient 测试客户端不可用时不缓存
func TestSessionSnapshot_NoClient(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddStaff("a@x.com", "staff-1")
	identity := clienttest.Identity("a@x.com")

	sessions, _ := newSessionService(t, gw)
	snapshot := sessions.Snapshot(context.Background(), nil, identity)
	assert.Nil(t, snapshot.StaffID)

	snapshot = sessions.Snapshot(context.Background(), gw.Client(nil, identity.Email), identity)
	require.NotNil(t, snapshot.StaffID)
}

// TestSessionInvalidate 测试会话失效
func TestSessionInvalidate(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddStaff("a@x.com", "staff-1")
	identity := clienttest.Identity("a@x.com")
	cl := gw.Client(nil, identity.Email)

	closer := &countingCloser{}
	sessions, audits := newSessionService(t, gw, closer)
	sessions.Snapshot(context.Background(), cl, identity)
	sessions.Invalidate(context.Background(), identity)
	sessions.Snapshot(context.Background(), cl, identity)

	assert.Equal(t, 2, gw.Calls(clienttest.EndpointStaff))
	assert.Equal(t, 1, closer.closed)

	logs, err := audits.ListByResource(context.Background(), "session", identity.SessionKey())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.AuditActionSessionInvalidate, logs[0].Action)
}

// TestSessionInvalidate_DropsClientWithoutSubject 测试没有 subject 的会话失效时丢弃客户端
func TestSessionInvalidate_DropsClientWithoutSubject(t *testing.T) {
	gw := clienttest.NewGateway(t)
	factory := gw.Factory(nil)
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(setupTestDB(t)))
	cache := auth.NewSessionCache[service.SessionSnapshot](time.Hour)
	sessions := service.NewSessionService(cache, factory, audits, testLogger())

	identity := &auth.Identity{Email: "a@x.com", Token: "t1", Groups: []string{}}
	require.NotNil(t, factory.For(identity))
	require.Equal(t, 1, factory.Len())

	sessions.Invalidate(context.Background(), identity)
	assert.Equal(t, 0, factory.Len())
}
