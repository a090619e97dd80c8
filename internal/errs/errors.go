package errs

import (
	"errors"
	"fmt"
)

// ==================== 业务错误哨兵 ====================

// 各层通过 errors.Is 判断错误类别，HTTP 层据此映射状态码
var (
	// ErrInvalidArgument 调用方参数非法（不可重试）
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound 目标记录不存在或已软删除
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock 库存不足（或商品不存在，单条件更新无法区分）
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotInitialized 权限引擎未初始化，属部署/编码错误，不应吞掉
	ErrNotInitialized = errors.New("permission engine not initialized")

	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token 相关。过期是常态，调用方应引导刷新或重新登录；
	// 签名错误与格式错误意味着伪造或损坏，不给提示
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")

	// ErrStorage 底层存储故障的统一类别，原始错误通过 Unwrap 保留
	ErrStorage = errors.New("storage failure")
)

// ==================== 存储错误包装 ====================

// StorageError 包装底层存储错误，保留操作名与原始 cause
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrStorage) 成立
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage 包装存储层错误；err 为 nil 时返回 nil
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
