package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/pkg/response"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrCompanyNameTaken    = errors.New("company name already registered")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrTokenGeneration     = errors.New("failed to generate token")
)

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Service handles company registration and login
type Service struct {
	db             *Database
	jwtSecret      []byte
	startingCarbon float64
	startingCash   float64
}

// NewService creates a new authentication service. New companies are seeded
// with the given starting balances so they can trade immediately.
func NewService(gormDB *gorm.DB, jwtSecret string, startingCarbon, startingCash float64) *Service {
	return &Service{
		db:             NewDatabase(gormDB),
		jwtSecret:      []byte(jwtSecret),
		startingCarbon: startingCarbon,
		startingCash:   startingCash,
	}
}

// Register creates a new company together with its seeded balance account
func (s *Service) Register(companyName, email, password string) (*Company, error) {
	companyName = strings.TrimSpace(companyName)
	email = strings.ToLower(strings.TrimSpace(email))

	if companyName == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrInvalidRegistration)
	}
	if !strings.Contains(email, "@") || len(email) > 120 {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidRegistration)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidRegistration)
	}

	existing, err := s.db.GetCompanyByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	company := &Company{
		CompanyID:    "CMP_" + uuid.New().String(),
		CompanyName:  companyName,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	account := &accounts.Account{
		CompanyID:     company.CompanyID,
		CompanyName:   companyName,
		CarbonBalance: s.startingCarbon,
		CashBalance:   s.startingCash,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.db.CreateCompanyWithAccount(company, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCompanyNameTaken
		}
		return nil, fmt.Errorf("failed to register company: %w", err)
	}

	log.Info().
		Str("company_id", company.CompanyID).
		Str("company_name", companyName).
		Float64("starting_carbon", s.startingCarbon).
		Float64("starting_cash", s.startingCash).
		Msg("company registered")

	return company, nil
}

// Login verifies the credentials and issues a 24-hour JWT carrying the
// company identity
func (s *Service) Login(email, password string) (*TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	company, err := s.db.GetCompanyByEmail(email)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(24 * time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		CompanyID: company.CompanyID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type registerBody struct {
	CompanyName string `json:"company_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler handles POST requests to register a new company
func (h *GinHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body registerBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		company, err := h.service.Register(body.CompanyName, body.Email, body.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidRegistration):
				response.BadRequest(c, err.Error())
			case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrCompanyNameTaken):
				response.Conflict(c, err.Error())
			default:
				response.InternalError(c, "An unexpected error occurred")
			}
			return
		}

		response.Success(c, gin.H{
			"company_id":   company.CompanyID,
			"company_name": company.CompanyName,
		})
	}
}

// LoginHandler handles POST requests to authenticate a company
func (h *GinHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body loginBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.Login(body.Email, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}
