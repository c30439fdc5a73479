package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/sirupsen/logrus"
)

// SessionSnapshot 会话上下文,每个认证会话计算一次,之后不可变
type SessionSnapshot struct {
	Team        map[string]interface{} `json:"team"`
	StaffID     *string                `json:"staff_id"`
	TeamMissing bool                   `json:"team_missing"`
	Email       string                 `json:"email"`
	Name        string                 `json:"name,omitempty"`
	Groups      []string               `json:"groups"`
	LoadedAt    time.Time              `json:"loaded_at"`
}

// OwnerCloser 按用户关闭资源
type OwnerCloser interface {
	CloseOwner(identity *auth.Identity) int
}

// SessionService 会话上下文服务
type SessionService interface {
	Snapshot(ctx context.Context, cl *client.Client, identity *auth.Identity) SessionSnapshot
	Invalidate(ctx context.Context, identity *auth.Identity)
}

// sessionService 会话上下文服务实现
type sessionService struct {
	cache        *auth.SessionCache[SessionSnapshot]
	factory      *client.Factory
	auditService AuditLogService
	closers      []OwnerCloser
	logger       logrus.FieldLogger
}

// NewSessionService 创建会话上下文服务
func NewSessionService(
	cache *auth.SessionCache[SessionSnapshot],
	factory *client.Factory,
	auditService AuditLogService,
	logger logrus.FieldLogger,
	closers ...OwnerCloser,
) SessionService {
	return &sessionService{
		cache:        cache,
		factory:      factory,
		auditService: auditService,
		closers:      closers,
		logger:       logger,
	}
}

// Snapshot 获取会话上下文,命中缓存时不访问上游
func (s *sessionService) Snapshot(ctx context.Context, cl *client.Client, identity *auth.Identity) SessionSnapshot {
	key := identity.SessionKey()
	if snapshot, ok := s.cache.Get(key); ok {
		return snapshot
	}

	snapshot := SessionSnapshot{
		Team:     map[string]interface{}{},
		Email:    identity.Email,
		Name:     identity.Name,
		Groups:   append([]string{}, identity.Groups...),
		LoadedAt: time.Now(),
	}
	if cl == nil {
		return snapshot
	}

	canceled := false

	// 1. 团队
	if identity.TeamID == "" {
		snapshot.TeamMissing = true
	} else {
		team, err := cl.GetTeam(ctx, identity.TeamID)
		switch {
		case err != nil:
			canceled = canceled || client.IsCanceled(err)
			s.logger.WithError(err).WithField("team_id", identity.TeamID).Warn("failed to load team")
		case team != nil:
			snapshot.Team = stringifyNumbers(team)
		}
	}

	// 2. 员工 ID
	staffID, err := cl.GetStaffID(ctx, identity.Email)
	if err != nil {
		canceled = canceled || client.IsCanceled(err)
		s.logger.WithError(err).WithField("user_id", identity.Email).Warn("failed to load staff id")
	} else {
		snapshot.StaffID = staffID
	}

	// 请求被取消时不缓存,下次重新计算
	if !canceled {
		s.cache.Set(key, snapshot)
	}
	return snapshot
}

// Invalidate 会话变更时清除缓存、客户端和视图
func (s *sessionService) Invalidate(ctx context.Context, identity *auth.Identity) {
	s.cache.Delete(identity.SessionKey())
	if s.factory != nil {
		s.factory.Forget(identity)
	}

	closed := 0
	for _, c := range s.closers {
		closed += c.CloseOwner(identity)
	}

	if s.auditService != nil {
		details := map[string]interface{}{"closed_views": closed}
		if err := s.auditService.RecordAction(ctx, identity.Email, AuditActionSessionInvalidate, "session", identity.SessionKey(), details); err != nil {
			s.logger.WithError(err).Warn("failed to record audit log")
		}
	}
}

// stringifyNumbers 将顶层数字字段转为字符串
func stringifyNumbers(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		switch n := v.(type) {
		case float64:
			out[k] = strconv.FormatFloat(n, 'f', -1, 64)
		case json.Number:
			out[k] = n.String()
		case int:
			out[k] = strconv.Itoa(n)
		case int64:
			out[k] = strconv.FormatInt(n, 10)
		default:
			out[k] = v
		}
	}
	return out
}
