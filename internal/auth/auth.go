package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Verifier checks HS256 bearer tokens issued by the identity collaborator
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ParseToken validates a token and extracts the caller from its user_id and is_staff claims
func (v *Verifier) ParseToken(tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid {
		return models.Actor{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("unexpected claims type")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return models.Actor{}, fmt.Errorf("missing user_id claim")
	}
	staff, _ := claims["is_staff"].(bool)

	return models.Actor{UserID: int64(userID), IsStaff: staff}, nil
}

// NewToken signs a token for a user, used by tests and local tooling
func (v *Verifier) NewToken(userID int64, isStaff bool, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_staff": isStaff,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid bearer token and stores the Actor in the context
func (v *Verifier) Middleware(onError func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			onError(c, apperror.Unauthorized("Token de autenticación requerido"))
			c.Abort()
			return
		}

		actor, err := v.ParseToken(strings.TrimSpace(tokenString))
		if err != nil {
			onError(c, apperror.Wrap(apperror.KindUnauthorized, err, "Token inválido"))
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the caller stored by Middleware
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
