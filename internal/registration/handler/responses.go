package handler

import "campusid/internal/registration/models"

type RegisterResponse struct {
	Redirect string `json:"redirect"`
	UID      string `json:"uid"`
}

type LoginResponse struct {
	Redirect string `json:"redirect"`
	UID      string `json:"uid"`
	IDToken  string `json:"id_token,omitempty"`
}

type CoursesResponse struct {
	Courses []string `json:"courses"`
}

func toRegisterResponse(out *models.Outcome) *RegisterResponse {
	return &RegisterResponse{Redirect: out.Redirect, UID: out.UserID}
}

func toLoginResponse(out *models.Outcome) *LoginResponse {
	return &LoginResponse{Redirect: out.Redirect, UID: out.UserID, IDToken: out.IDToken}
}
