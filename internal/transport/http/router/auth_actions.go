package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-admin/internal/service"
	"wms-admin/internal/transport/http/ez"
	mdw "wms-admin/internal/transport/http/middleware"
)

type authModule struct{ d Deps }

func (authModule) Priority() int { return 10 }

type refreshIn struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (m authModule) MountAPI(api ez.EZ) {
	g := api.Group("/auth")
	bearer := []gin.HandlerFunc{mdw.AuthJWT(m.d.JWT)}

	ez.RegisterAction(g, ez.Action[service.LoginInput, *service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.TokenPair, error) {
			return m.d.Auth.Login(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.RegisterInput, *service.UserInfo]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.UserInfo, error) {
			return m.d.Auth.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[refreshIn, *service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/refresh-token",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *refreshIn) (*service.TokenPair, error) {
			return m.d.Auth.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, messageOut]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Guards: bearer,
		Handler: func(c *gin.Context, _ *struct{}) (messageOut, error) {
			if err := m.d.Auth.Logout(c.Request.Context(), principal(c).UserID); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Logged out successfully"}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[service.ChangePasswordInput, messageOut]{
		Method: http.MethodPost,
		Path:   "/change-password",
		Binder: ez.BindJSON,
		Guards: bearer,
		Handler: func(c *gin.Context, in *service.ChangePasswordInput) (messageOut, error) {
			if err := m.d.Auth.ChangePassword(c.Request.Context(), principal(c).UserID, *in); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Password changed successfully"}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *service.UserInfo]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Guards: bearer,
		Handler: func(c *gin.Context, _ *struct{}) (*service.UserInfo, error) {
			return m.d.Auth.Me(c.Request.Context(), principal(c).UserID)
		},
	})
}
