package service

import (
	"strings"
	"unicode/utf8"
)

const operatorPasswordMinLength = 8

// operatorPasswordProblem 返回密码不合规原因，合规时返回空串
func operatorPasswordProblem(username, password string) string {
	trimmed := strings.TrimSpace(password)
	if utf8.RuneCountInString(trimmed) < operatorPasswordMinLength {
		return "must be at least 8 characters"
	}
	if strings.EqualFold(trimmed, strings.TrimSpace(username)) {
		return "must differ from operator_username"
	}
	return ""
}
