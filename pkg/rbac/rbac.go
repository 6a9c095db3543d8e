package rbac

// 权限常量
const (
	// 敏感操作权限（仅 admin）
	PermissionProjectDelete     = "project:delete"
	PermissionAssignmentManage  = "assignment:manage"
	PermissionSentimentGenerate = "sentiment:generate_all"
	PermissionOutboxReplay      = "outbox:replay"

	// 普通操作权限
	PermissionProjectRead      = "project:read"
	PermissionProjectUpdate    = "project:update"
	PermissionNoteWrite        = "note:write"
	PermissionTimelineWrite    = "timeline:write"
	PermissionDeveloperRead    = "developer:read"
	PermissionSentimentAnalyze = "sentiment:analyze"
)

// 角色常量，与 users.role 的取值一致
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleDeveloper: {
		PermissionProjectRead,
		PermissionProjectUpdate,
		PermissionNoteWrite,
		PermissionTimelineWrite,
		PermissionDeveloperRead,
		PermissionSentimentAnalyze,
	},
	RoleAdmin: {
		PermissionProjectRead,
		PermissionProjectUpdate,
		PermissionNoteWrite,
		PermissionTimelineWrite,
		PermissionDeveloperRead,
		PermissionSentimentAnalyze,
		PermissionProjectDelete,
		PermissionAssignmentManage,
		PermissionSentimentGenerate,
		PermissionOutboxReplay,
	},
}

// HasPermission 检查角色是否有指定权限，未知角色没有任何权限
func HasPermission(role string, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查权限（返回错误而不是布尔值，便于处理）
func CheckPermission(userID int64, role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     int64
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
