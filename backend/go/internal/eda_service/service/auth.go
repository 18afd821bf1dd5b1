package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/models"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- User Registration & Login ---

const maxPasswordBytes = 72

// Register 创建一个新用户，密码以 bcrypt 哈希保存。
func (s *Service) Register(email, password string) (*models.User, error) {
	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	// max=72 按字符计数，多字节字符仍可能超过 bcrypt 的字节上限
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	email = strings.TrimSpace(email)
	if _, err := st.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验邮箱和密码并签发访问令牌。
func (s *Service) Login(email, password string) (string, error) {
	st, err := s.requireStore()
	if err != nil {
		return "", err
	}
	user, err := st.GetUserByEmail(strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(user.ID, time.Duration(s.cfg.Auth.AccessTokenMinutes)*time.Minute)
}

// CurrentUser 解析令牌并加载对应用户。
func (s *Service) CurrentUser(token string) (*models.User, error) {
	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	sub, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := st.GetUserByID(sub)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user, nil
}

// --- Tokens ---

func (s *Service) signingMethod() jwt.SigningMethod {
	if m, ok := jwt.GetSigningMethod(s.cfg.Auth.JwtAlgorithm).(*jwt.SigningMethodHMAC); ok {
		return m
	}
	return jwt.SigningMethodHS256
}

// issueToken 为 sub 签发一个 ttl 后过期的 JWT。
func (s *Service) issueToken(sub string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", errors.New("token claims must include a sub")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(s.signingMethod(), claims).SignedString([]byte(s.cfg.Auth.JwtSecret))
}

var requiredClaims = []string{"sub", "iat", "nbf", "exp"}

// ParseToken 校验签名与时间声明，返回 sub。
func (s *Service) ParseToken(tokenString string) (string, error) {
	method := s.signingMethod()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 确保 token 的签名方法是我们期望的
		if token.Method.Alg() != method.Alg() {
			return nil, fmt.Errorf("非预期的签名方法: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.JwtSecret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	for _, k := range requiredClaims {
		if _, ok := claims[k]; !ok {
			return "", ErrInvalidToken
		}
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
