package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/odyssey-erp/rbac-console/internal/platform/httpx"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
)

func withUser(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxUserKey{}).(int64)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		message(w, http.StatusBadRequest, "Richiesta non valida")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acc := range s.accounts {
		if acc.user.Email != body.Email {
			continue
		}
		if !acc.checkPassword(body.Password) {
			break
		}
		if !acc.user.Active {
			message(w, http.StatusForbidden, "Account disattivato")
			return
		}
		access, refresh := s.issueLocked(id)
		payload := s.profileLocked(id)
		payload["message"] = "Login effettuato"
		payload["token"] = access
		payload["refreshToken"] = refresh
		httpx.JSON(w, http.StatusOK, payload)
		return
	}
	message(w, http.StatusUnauthorized, "Credenziali non valide")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || body.RefreshToken == "" {
		message(w, http.StatusBadRequest, "Refresh token mancante")
		return
	}

	s.mu.Lock()
	gate := s.refreshGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if s.failRefresh.Load() {
		message(w, http.StatusUnauthorized, "Refresh token non valido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[body.RefreshToken]
	if !ok {
		message(w, http.StatusUnauthorized, "Refresh token non valido")
		return
	}
	delete(s.refresh, body.RefreshToken)
	access, refresh := s.issueLocked(userID)
	httpx.JSON(w, http.StatusOK, map[string]string{"token": access, "refreshToken": refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = httpx.DecodeJSON(r, &body)
	s.mu.Lock()
	delete(s.refresh, body.RefreshToken)
	s.mu.Unlock()
	message(w, http.StatusOK, "Logout effettuato")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.failProfile.Load() {
		message(w, http.StatusInternalServerError, "Errore interno")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	httpx.JSON(w, http.StatusOK, s.profileLocked(userFrom(r.Context())))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string  `json:"name"`
		Surname         *string `json:"surname"`
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		PrivacyAccepted bool    `json:"privacyAccepted"`
		PolicyAccepted  bool    `json:"policyAccepted"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Email == "" || body.Password == "" {
		message(w, http.StatusBadRequest, "Dati mancanti")
		return
	}
	if !body.PrivacyAccepted || !body.PolicyAccepted {
		message(w, http.StatusBadRequest, "Accettare privacy e policy")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.Email == body.Email {
			message(w, http.StatusConflict, "Email già registrata")
			return
		}
	}
	now := time.Now().UTC()
	id := s.addAccount(rbac.User{
		Email:             body.Email,
		Name:              body.Name,
		Surname:           body.Surname,
		Active:            true,
		PrivacyAcceptedAt: &now,
		PolicyAcceptedAt:  &now,
		CreatedAt:         &now,
	}, body.Password)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Registrazione completata",
		"user":    s.userLocked(id),
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Email == "" {
		message(w, http.StatusBadRequest, "Email mancante")
		return
	}
	s.mu.Lock()
	for id, acc := range s.accounts {
		if acc.user.Email == body.Email {
			s.tokenSeq++
			s.resets[fmt.Sprintf("reset-%d-%d", id, s.tokenSeq)] = id
		}
	}
	s.mu.Unlock()
	// Same answer for unknown emails.
	message(w, http.StatusOK, "Se l'email esiste riceverai un link")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		message(w, http.StatusBadRequest, "Richiesta non valida")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.resets[body.Token]
	if !ok {
		message(w, http.StatusBadRequest, "Token non valido o scaduto")
		return
	}
	delete(s.resets, body.Token)
	s.accounts[id].passwordHash = hashPassword(body.NewPassword)
	message(w, http.StatusOK, "Password aggiornata")
}

func (s *Server) handleVerifyResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	s.mu.Lock()
	_, ok := s.resets[token]
	s.mu.Unlock()
	if !ok {
		message(w, http.StatusBadRequest, "Token non valido o scaduto")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"valid": true})
}
