package response

// AppError 处理器错误，Message 对外返回，Err 只进日志
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ServerSide 5xx 类错误，日志按 error 级别记录
func (e *AppError) ServerSide() bool {
	return e != nil && e.Code >= CodeInternal
}

// LogFields 结构化日志字段
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{"code", e.Code, "message", e.Message}
	if e.Key != "" {
		fields = append(fields, "message_key", e.Key)
	}
	if e.Err != nil {
		fields = append(fields, "error", e.Err)
	}
	return fields
}

// NewError 按消息 key 构造错误
func NewError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// WrapError 包装无 key 的自定义消息错误
func WrapError(code int, message string, err error) *AppError {
	return NewError(code, "", message, err)
}
