package room

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/partyjukebox/server/internal/domain"
)

// SessionClaims identify a participant on the live channel.
type SessionClaims struct {
	UserID   string      `json:"user_id"`
	RoomID   string      `json:"room_id"`
	RoomCode string      `json:"room_code"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s service) generateSessionToken(user domain.UserProfile, roomCode string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		UserID:   user.ID,
		RoomID:   user.RoomID,
		RoomCode: roomCode,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

func (s service) parseSessionToken(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.UserID == "" || claims.RoomID == "" {
		return nil, errors.New("token is missing participant claims")
	}

	return &claims, nil
}
