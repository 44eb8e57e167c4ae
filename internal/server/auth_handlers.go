package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"aimarket/internal/models"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Register handles POST /api/auth/register. A successful registration logs
// the user in immediately.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Department string `json:"department"`
		Position   string `json:"position"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.authService.Register(c.Context(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"accessToken": token,
		"user":        user,
	})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.authService.Login(c.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"accessToken": token,
		"user":        user,
	})
}

// GetProfile handles GET /api/auth/profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.authService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PATCH /api/auth/profile.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name         *string `json:"name"`
		Avatar       *string `json:"avatar"`
		Department   *string `json:"department"`
		DepartmentID *uint   `json:"department_id"`
		Position     *string `json:"position"`
		Phone        *string `json:"phone"`
		QrCode       *string `json:"qr_code"`
		QrCodeType   *string `json:"qr_code_type"`
		ShowPhone    *bool   `json:"show_phone"`
		ShowQrCode   *bool   `json:"show_qr_code"`
		FeishuID     *string `json:"feishu_id"`
		FeishuUserID *string `json:"feishu_user_id"`
		ShowFeishu   *bool   `json:"show_feishu"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	user, err := s.authService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:       currentUserID(c),
		Name:         req.Name,
		Avatar:       req.Avatar,
		Department:   req.Department,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		Phone:        req.Phone,
		QrCode:       req.QrCode,
		QrCodeType:   req.QrCodeType,
		ShowPhone:    req.ShowPhone,
		ShowQrCode:   req.ShowQrCode,
		FeishuID:     req.FeishuID,
		FeishuUserID: req.FeishuUserID,
		ShowFeishu:   req.ShowFeishu,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Logout handles POST /api/auth/logout by blacklisting the token's jti until
// the token would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	token, _, err := jwt.NewParser().ParseUnverified(parts[1], jwt.MapClaims{})
	if err == nil && s.redis != nil {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			jti, _ := claims["jti"].(string)
			if jti != "" {
				ttl := time.Duration(s.config.JWTExpiryHours) * time.Hour
				if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
					if remaining := time.Until(exp.Time); remaining > 0 {
						ttl = remaining
					}
				}
				s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl)
			}
		}
	}

	return c.JSON(fiber.Map{"message": "已退出登录"})
}

// generateToken creates a signed JWT for the given user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	expiry := time.Duration(s.config.JWTExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 168 * time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"role":  user.Role,
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(expiry).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so individual tokens can be revoked.
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
