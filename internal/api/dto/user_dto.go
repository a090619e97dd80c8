package dto

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshReq 刷新令牌请求
type RefreshReq struct {
	Token string `json:"token" binding:"required"`
}

// LoginResp 登录响应
type LoginResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
}

// PolicyReq 授权三元组维护
type PolicyReq struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

// RoleAssignReq 角色分配维护
type RoleAssignReq struct {
	Subject string `json:"subject" binding:"required"`
	Role    string `json:"role" binding:"required"`
}
