package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserAuthService 用户认证服务（身份提供方）
type UserAuthService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	walletRepo  repository.WalletRepository
	referralSvc *ReferralService
	walletSvc   *WalletService
	roleSvc     *RoleService
	now         func() time.Time
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	walletRepo repository.WalletRepository,
	referralSvc *ReferralService,
	walletSvc *WalletService,
	roleSvc *RoleService,
) *UserAuthService {
	return &UserAuthService{
		cfg:         cfg,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		walletRepo:  walletRepo,
		referralSvc: referralSvc,
		walletSvc:   walletSvc,
		roleSvc:     roleSvc,
		now:         time.Now,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	PhoneNumber  string
	ReferralCode string
}

// AuthResult 登录/注册结果
type AuthResult struct {
	User      *models.User
	Profile   *models.Profile
	Token     string
	ExpiresAt time.Time
}

// ProfileView 当前用户资料视图
type ProfileView struct {
	User             *models.User `json:"user"`
	ReferralCode     string       `json:"referral_code"`
	ReferralCount    int          `json:"referral_count"`
	ReferralEarnings models.Money `json:"referral_earnings"`
	ReferralRate     models.Money `json:"referral_rate"`
	WalletBalance    models.Money `json:"wallet_balance"`
	AccountUpgraded  bool         `json:"account_upgraded"`
	Roles            []string     `json:"roles"`
	IsAdmin          bool         `json:"is_admin"`
}

// UpdateProfileInput 资料更新输入
type UpdateProfileInput struct {
	FullName    *string
	PhoneNumber *string
	Locale      *string
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(resolveUserJWTExpireHours(s.cfg.UserJWT)) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Register 用户注册：用户、推荐档案、钱包账户在同一事务中创建，推荐码失败不影响注册
func (s *UserAuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, err
	}

	exist, err := s.userRepo.WithContext(ctx).GetByEmail(normalized)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if exist != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		FullName:     strings.Join(strings.Fields(input.FullName), " "),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		Locale:       constants.LocaleEnUS,
		Status:       constants.UserStatusActive,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var profile *models.Profile
	err = s.userRepo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailExists
			}
			return err
		}
		created, err := s.referralSvc.CreateProfile(s.profileRepo.WithTx(tx), user.ID)
		if err != nil {
			return err
		}
		if _, err := s.walletSvc.EnsureAccount(s.walletRepo.WithTx(tx), user.ID); err != nil {
			return err
		}
		profile = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrPersistence) {
			return nil, err
		}
		return nil, wrapPersistence(err)
	}

	log := logger.FromContext(ctx)
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		if err := s.referralSvc.ProcessReferral(ctx, user.ID, code); err != nil {
			log.Warnw("register_referral_skipped", "user_id", user.ID, "error", err)
		} else if refreshed, err := s.profileRepo.WithContext(ctx).GetByUserID(user.ID); err == nil && refreshed != nil {
			profile = refreshed
		}
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
	log.Infow("user_registered", "user_id", user.ID)

	return &AuthResult{User: user, Profile: profile, Token: token, ExpiresAt: expiresAt}, nil
}

// Login 用户登录
func (s *UserAuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.WithContext(ctx).GetByEmail(normalized)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.userRepo.WithContext(ctx).UpdateLastLogin(user.ID, now); err != nil {
		return nil, wrapPersistence(err)
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))

	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUserByID 获取用户
func (s *UserAuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.WithContext(ctx).GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetProfile 当前用户资料（余额走缓存，角色来自角色存储）
func (s *UserAuthService) GetProfile(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.WithContext(ctx).GetByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	view := &ProfileView{
		User:             user,
		ReferralCode:     profile.ReferralCode,
		ReferralCount:    profile.ReferralCount,
		ReferralEarnings: profile.ReferralEarnings,
		ReferralRate:     profile.ReferralRate,
		WalletBalance:    models.ZeroMoney(),
		AccountUpgraded:  profile.AccountUpgraded,
		Roles:            []string{},
	}
	if balance, err := s.walletSvc.GetBalance(ctx, userID); err == nil {
		view.ReferralEarnings = balance.ReferralEarnings
		view.WalletBalance = balance.WalletBalance
	}
	if s.roleSvc != nil {
		if roles, err := s.roleSvc.GetRoles(ctx, userID); err == nil {
			view.Roles = roles
		}
		if isAdmin, err := s.roleSvc.IsAdmin(userID); err == nil {
			view.IsAdmin = isAdmin
		}
	}
	return view, nil
}

// UpdateProfile 更新姓名、手机号与语言
func (s *UserAuthService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.FullName != nil {
		name := strings.Join(strings.Fields(*input.FullName), " ")
		if len(name) > 120 {
			return nil, newValidationError("full_name", "error.full_name_invalid")
		}
		user.FullName = name
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if len(phone) > 32 {
			return nil, newValidationError("phone_number", "error.phone_number_invalid")
		}
		user.PhoneNumber = phone
	}
	if input.Locale != nil {
		locale := strings.TrimSpace(*input.Locale)
		if !isSupportedLocale(locale) {
			return nil, newValidationError("locale", "error.locale_invalid")
		}
		user.Locale = locale
	}
	now := s.now()
	if err := s.userRepo.WithContext(ctx).UpdateProfile(user.ID, user.FullName, user.PhoneNumber, user.Locale, now); err != nil {
		return nil, wrapPersistence(err)
	}
	user.UpdatedAt = now
	return user, nil
}

// SetUserStatus 启用或禁用用户；禁用会令已签发的 Token 失效
func (s *UserAuthService) SetUserStatus(ctx context.Context, operatorID, userID uint, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, newValidationError("status", "error.user_status_invalid")
	}
	if operatorID == userID && status == constants.UserStatusDisabled {
		return nil, ErrForbidden
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.WithContext(ctx).UpdateStatus(user.ID, status); err != nil {
		return nil, wrapPersistence(err)
	}
	if err := cache.DelUserAuthState(ctx, user.ID); err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_invalidate_failed", "user_id", user.ID, "error", err)
	}
	user.Status = status
	user.TokenVersion++
	logger.FromContext(ctx).Infow("user_status_changed", "operator_id", operatorID, "user_id", user.ID, "status", status)
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func isSupportedLocale(locale string) bool {
	for _, item := range constants.SupportedLocales {
		if item == locale {
			return true
		}
	}
	return false
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 24
	}
	return cfg.ExpireHours
}
