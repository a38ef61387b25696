// Package utils contains id generation and token helpers
package utils

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
	"github.com/paperbridge/bookstore-go/models"
)

func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateProfileToken signs a JWT carrying the visitor's profile
func GenerateProfileToken(profile *models.Profile, jwtSecret string) (string, error) {
	if jwtSecret == "" {
		return "", errors.New("empty jwt secret")
	}

	claims := jwt.MapClaims{
		"visitorId": profile.VisitorID,
		"leadId":    profile.LeadID,
		"profile": map[string]string{
			"firstname": profile.Firstname,
			"email":     profile.Email,
		},
		"iat": time.Now().UTC().Unix(),
		"exp": time.Now().UTC().Add(30 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	result, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("ERROR: Failed to sign JWT token: %v", err)
		return "", err
	}

	return result, nil
}

func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GetProfileFromClaims rebuilds a profile from validated JWT claims
func GetProfileFromClaims(claims jwt.MapClaims) *models.Profile {
	if profileData, ok := claims["profile"].(map[string]any); ok {
		visitorID, _ := claims["visitorId"].(string)
		leadID, _ := claims["leadId"].(string)
		firstname, _ := profileData["firstname"].(string)
		email, _ := profileData["email"].(string)
		return &models.Profile{
			VisitorID: visitorID,
			LeadID:    leadID,
			Firstname: firstname,
			Email:     email,
		}
	}
	return nil
}
