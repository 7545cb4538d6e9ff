package service

import (
	"crypto/rand"
	"regexp"
	"strings"
)

// TrackingCodeAlphabet 追踪码字符集，去掉易混淆的 0/O/1/I
const TrackingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const trackingCodeGroups = 3
const trackingCodeGroupSize = 3

var trackingCodePattern = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{3}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{3}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{3}$`)

// GenerateTrackingCode 生成 XXX-XXX-XXX 格式追踪码
func GenerateTrackingCode() (string, error) {
	raw := make([]byte, trackingCodeGroups*trackingCodeGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	var b strings.Builder
	for i, v := range raw {
		if i > 0 && i%trackingCodeGroupSize == 0 {
			b.WriteByte('-')
		}
		// 字符集长度为 32，取低 5 位无偏
		b.WriteByte(TrackingCodeAlphabet[int(v)&(len(TrackingCodeAlphabet)-1)])
	}
	return b.String(), nil
}

// IsTrackingCode 校验追踪码格式
func IsTrackingCode(code string) bool {
	return trackingCodePattern.MatchString(code)
}

// NormalizeTrackingCode 统一大写并去除空白
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
