package api

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/utils"
)

// ProfileRequest creates or unlocks a visitor profile
type ProfileRequest struct {
	Firstname string `json:"firstname"`
	Email     string `json:"email" binding:"required"`
	Codeword  string `json:"codeword" binding:"required"`
}

// ProfileResponse carries the profile result and token
type ProfileResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProfileHandler creates a lead for the visitor, or unlocks an existing one
// when the email is already registered and the codeword matches
func ProfileHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ProfileResponse{Success: false, Error: err.Error()})
		return
	}

	session, err := getSession(c, app)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ProfileResponse{Success: false, Error: err.Error()})
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ProfileResponse{Success: false, Error: "invalid request format"})
		return
	}

	var leadID, firstName, passwordHash string
	err = app.DB.Conn.QueryRow(
		`SELECT id, first_name, password_hash FROM leads WHERE email = ?`, req.Email,
	).Scan(&leadID, &firstName, &passwordHash)

	switch {
	case err == sql.ErrNoRows:
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Codeword), bcrypt.DefaultCost)
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, ProfileResponse{Success: false, Error: "Password hashing failed"})
			return
		}

		leadID = utils.GenerateULID()
		firstName = req.Firstname
		_, insertErr := app.DB.Conn.Exec(
			`INSERT INTO leads (id, first_name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			leadID, req.Firstname, req.Email, string(hashed), time.Now().UTC(),
		)
		if insertErr != nil {
			log.Printf("ERROR: ProfileHandler - failed to create lead: %v", insertErr)
			c.JSON(http.StatusInternalServerError, ProfileResponse{Success: false, Error: "Failed to create profile"})
			return
		}

	case err != nil:
		log.Printf("ERROR: ProfileHandler - lead lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, ProfileResponse{Success: false, Error: "Database error checking existing email"})
		return

	default:
		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Codeword)) != nil {
			c.JSON(http.StatusUnauthorized, ProfileResponse{Success: false, Error: "Invalid credentials"})
			return
		}
	}

	profile := &models.Profile{
		VisitorID: session.VisitorID,
		LeadID:    leadID,
		Firstname: firstName,
		Email:     req.Email,
	}

	token, err := utils.GenerateProfileToken(profile, config.JWTSecret)
	if err != nil {
		log.Printf("ERROR: ProfileHandler - token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, ProfileResponse{Success: false, Error: "Token generation failed"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Success: true, Token: token})
}

// DecodeProfileHandler validates a profile token and returns its profile
func DecodeProfileHandler(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	claims, err := utils.ValidateJWT(tokenString, config.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	profile := utils.GetProfileFromClaims(claims)
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visitorId": profile.VisitorID,
		"leadId":    profile.LeadID,
		"firstname": profile.Firstname,
		"email":     profile.Email,
	})
}
