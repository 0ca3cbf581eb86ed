package handler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
)

// generateHashString генерирует SHA-1 хеш из строки
func generateHashString(s string) string {
	h := sha1.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// LoginUser аутентификация пользователя
// @Summary Вход в систему
// @Description Аутентификация пользователя с возвратом JWT токена
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Данные для входа"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *Handler) LoginUser(ctx *gin.Context) {
	var request dto.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	// Хешируем входной пароль
	hashedPassword := generateHashString(request.Password)

	// Проверяем пользователя в базе данных
	user, err := h.Repository.UserByUsername(request.Username)
	if err != nil || user.PasswordHash != hashedPassword {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"status":      "error",
			"description": "неверный логин или пароль",
		})
		return
	}

	// Создание JWT токена с правами пользователя
	now := time.Now()
	token := jwt.NewWithClaims(h.Config.JWT.SigningMethod, ds.JWTClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(h.Config.JWT.ExpiresIn).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "apartment-finder",
		},
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		Permissions: repository.PermissionNames(user),
	})

	// Подписываем токен
	accessToken, err := token.SignedString([]byte(h.Config.JWT.Token))
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Infrastructure, err, "не удалось выдать токен"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "пользователь успешно авторизован",
		"user_id":    user.ID,
		"company_id": user.CompanyID,
		"token":      accessToken,
		"username":   user.Username,
		"expires_in": int(h.Config.JWT.ExpiresIn.Seconds()),
		"token_type": "Bearer",
	})
}

// LogoutUser выход пользователя из системы
// @Summary Выход из системы
// @Description Завершение сеанса пользователя с добавлением токена в blacklist
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (h *Handler) LogoutUser(ctx *gin.Context) {
	// Получение токена из заголовка
	tokenString := ctx.GetHeader("Authorization")
	if tokenString == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"status":      "error",
			"description": "authorization header missing",
		})
		return
	}

	// Удаление префикса "Bearer "
	if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
		tokenString = tokenString[7:]
	}

	// Парсинг токена для получения TTL
	token, err := jwt.ParseWithClaims(tokenString, &ds.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.Config.JWT.Token), nil
	})
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"status":      "error",
			"description": "invalid token",
		})
		return
	}

	claims, ok := token.Claims.(*ds.JWTClaims)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"status":      "error",
			"description": "invalid token claims",
		})
		return
	}

	// Вычисление TTL до истечения токена
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl > 0 {
		// Добавление токена в blacklist
		err = h.RedisClient.WriteJWTToBlacklist(context.Background(), tokenString, ttl)
		if err != nil {
			h.errorHandler(ctx, apperr.Wrap(apperr.Infrastructure, err, "не удалось завершить сеанс"))
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "пользователь успешно вышел из системы",
	})
}

// GetUserProfile профиль текущего пользователя
// @Summary Профиль пользователя
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Router /api/auth/profile [get]
func (h *Handler) GetUserProfile(ctx *gin.Context) {
	userID := ctx.GetUint("userID")
	user, err := h.Repository.UserByID(userID)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	response := dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Email:       user.Email,
		CompanyID:   user.CompanyID,
		Permissions: repository.PermissionNames(user),
	}
	if user.Role != nil {
		response.Role = user.Role.Name
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": response})
}

// RegisterUser создание пользователя в компании текущего администратора
// @Summary Создание пользователя
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterRequest true "Данные пользователя"
// @Success 201 {object} map[string]interface{}
// @Router /api/users [post]
func (h *Handler) RegisterUser(ctx *gin.Context) {
	var request dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	// Проверяем существует ли пользователь
	exists, _ := h.Repository.UserExistsByUsername(request.Username)
	if exists {
		h.errorHandler(ctx, apperr.New(apperr.Validation, "пользователь с таким логином уже существует"))
		return
	}

	user := ds.User{
		Username:     request.Username,
		FullName:     request.FullName,
		Email:        request.Email,
		PhoneNumber:  request.PhoneNumber,
		PasswordHash: generateHashString(request.Password),
		RoleID:       request.RoleID,
		// Пользователь всегда создаётся в компании администратора
		CompanyID: ctx.GetUint("companyID"),
	}
	if err := h.Repository.CreateUser(&user); err != nil {
		logrus.Error("Error creating user: ", err)
		h.errorHandler(ctx, apperr.Wrap(apperr.Infrastructure, err, "ошибка создания пользователя"))
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "пользователь успешно создан",
		"data":    gin.H{"id": user.ID, "username": user.Username},
	})
}

// GetCompanyUsers список пользователей компании
func (h *Handler) GetCompanyUsers(ctx *gin.Context) {
	users, err := h.Repository.CompanyUsers(ctx.GetUint("companyID"))
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		item := dto.UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			Email:     u.Email,
			CompanyID: u.CompanyID,
		}
		if u.Role != nil {
			item.Role = u.Role.Name
		}
		responses = append(responses, item)
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": responses})
}

// AddRecipient добавляет пользователя в рассылку об активациях
func (h *Handler) AddRecipient(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	// Получатель должен принадлежать компании администратора
	user, err := h.Repository.UserByID(id)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if user.CompanyID != ctx.GetUint("companyID") {
		h.errorHandler(ctx, apperr.New(apperr.Authorization, "пользователь принадлежит другой компании"))
		return
	}

	if err := h.Repository.AddRecipient(id); err != nil {
		h.errorHandler(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RemoveRecipient убирает пользователя из рассылки
func (h *Handler) RemoveRecipient(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if err := h.Repository.RemoveRecipient(id); err != nil {
		h.errorHandler(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success"})
}
