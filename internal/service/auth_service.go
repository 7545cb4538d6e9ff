package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/cache"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 操作员认证服务
type AuthService struct {
	cfg          *config.Config
	operatorRepo repository.OperatorRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, operatorRepo repository.OperatorRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		operatorRepo: operatorRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims JWT 声明
type JWTClaims struct {
	OperatorID   uint   `json:"operator_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// Actor 从声明构造操作员
func (c *JWTClaims) Actor() Actor {
	return Actor{
		OperatorID: c.OperatorID,
		Username:   c.Username,
		Email:      c.Email,
		Role:       c.Role,
	}
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(operator *models.Operator) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := JWTClaims{
		OperatorID:   operator.ID,
		Username:     operator.Username,
		Email:        operator.Email,
		Role:         operator.Role,
		TokenVersion: operator.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Login 操作员登录，role 为登录入口对应角色
func (s *AuthService) Login(username, password, role string) (*models.Operator, string, time.Time, error) {
	operator, err := s.operatorRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if operator == nil || operator.Role != role {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(operator.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(operator)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	operator.LastLoginAt = &now
	if err := s.operatorRepo.Update(operator); err != nil {
		return nil, "", time.Time{}, err
	}
	if err := cache.SetOperatorAuthState(context.Background(), cache.BuildOperatorAuthState(operator)); err != nil {
		logger.Warnw("auth_state_cache_set_failed", "operator_id", operator.ID, "error", err)
	}
	return operator, token, expiresAt, nil
}

// CurrentTokenVersion 返回操作员当前 token 版本，优先读缓存
func (s *AuthService) CurrentTokenVersion(ctx context.Context, operatorID uint) (uint64, bool, error) {
	if state, hit, err := cache.GetOperatorAuthState(ctx, operatorID); err == nil && hit && state != nil {
		return state.TokenVersion, true, nil
	}
	operator, err := s.operatorRepo.GetByID(operatorID)
	if err != nil {
		return 0, false, err
	}
	if operator == nil {
		return 0, false, nil
	}
	_ = cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator))
	return operator.TokenVersion, true, nil
}

// CreateOperator 创建操作员
func (s *AuthService) CreateOperator(username, email, password, role string) (*models.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		verr := &ValidationError{}
		if username == "" {
			verr.Add("username", "is required")
		}
		if strings.TrimSpace(password) == "" {
			verr.Add("password", "is required")
		}
		return nil, verr
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	operator := &models.Operator{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.operatorRepo.Create(operator); err != nil {
		return nil, err
	}
	return operator, nil
}
