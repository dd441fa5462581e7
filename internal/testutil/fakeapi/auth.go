package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type authUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u *user) auth() authUser {
	return authUser{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// IssueToken signs a token for userID that expires after ttl.
func (s *Server) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// AddUser creates a verified user and returns its id.
func (s *Server) AddUser(fullName, email, password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(&user{FullName: fullName, Email: normalizeEmail(email), Password: hash, Verified: true})
}

func (s *Server) addUserLocked(u *user) string {
	u.ID = uuid.NewString()
	s.users[u.ID] = u
	s.order = append(s.order, u.ID)
	s.byEmail[u.Email] = u.ID
	return u.ID
}

// ResetToken returns the password reset token last issued for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, e := range s.resets {
		if e == normalizeEmail(email) {
			return tok
		}
	}
	return ""
}

func (s *Server) sessionResponse(w http.ResponseWriter, status int, u *user, message string, nested bool) {
	tok, err := s.IssueToken(u.ID, s.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	if nested {
		writeJSON(w, status, map[string]any{
			"message": message,
			"data":    map[string]any{"token": tok, "user": u.auth()},
		})
		return
	}
	writeJSON(w, status, map[string]any{"message": message, "token": tok, "user": u.auth()})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := normalizeEmail(req.Email)
	if strings.TrimSpace(req.FullName) == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	if _, exists := s.byEmail[email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	u := &user{FullName: strings.TrimSpace(req.FullName), Email: email, Password: hash, Verified: !s.requireOTP}
	s.addUserLocked(u)
	if s.requireOTP {
		s.otps[OTPCode] = u.ID
	}
	s.mu.Unlock()

	if s.requireOTP {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "OTP sent to your email", "user": u.auth()})
		return
	}
	s.sessionResponse(w, http.StatusCreated, u, "Registration successful", false)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	u := s.users[s.byEmail[normalizeEmail(req.Email)]]
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.Password, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !u.Verified {
		writeError(w, http.StatusForbidden, "Please verify your email first")
		return
	}
	s.sessionResponse(w, http.StatusOK, u, "Login successful", false)
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OTP string `json:"OTP"`
	}
	if !decodeBody(r, &req) || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "OTP is required")
		return
	}

	s.mu.Lock()
	id, ok := s.otps[req.OTP]
	var u *user
	if ok {
		delete(s.otps, req.OTP)
		u = s.users[id]
		u.Verified = true
	}
	s.mu.Unlock()

	if u == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	s.sessionResponse(w, http.StatusOK, u, "Email verified", true)
}

func (s *Server) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[normalizeEmail(req.Email)]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if s.users[id].Verified {
		writeError(w, http.StatusBadRequest, "User already verified")
		return
	}
	s.otps[OTPCode] = id
	writeJSON(w, http.StatusOK, map[string]any{"message": "OTP resent"})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := normalizeEmail(req.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	s.resets[uuid.NewString()] = email
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset link sent"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeBody(r, &req) || req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Token and new password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[req.Token]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	delete(s.resets, req.Token)
	s.users[s.byEmail[email]].Password = hash
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successful"})
}
