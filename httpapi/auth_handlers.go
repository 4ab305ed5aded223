package httpapi

import (
	"net/http"

	"zchat/domain"
	"zchat/services"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type sessionResponse struct {
	Token services.Token `json:"token"`
	User  domain.User    `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[registerRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, user, err := a.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[loginRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[verifyRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.auth.Verify(r.Context(), callerID(r), req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
