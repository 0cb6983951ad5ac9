package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AuthLoginRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthLoginResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"accessToken"`
}

type AuthMeResponse struct {
	UserID  int64  `json:"userId"`
	LoginID string `json:"loginId"`
}

type AuthUser struct {
	UserID  int64  `json:"userId"`
	LoginID string `json:"loginId"`
}
