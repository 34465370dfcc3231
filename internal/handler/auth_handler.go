/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"whatsgram/internal/app/db"
	"whatsgram/internal/pkg/auth/jwt"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/req"
	"whatsgram/internal/pkg/resp"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Gender   string `json:"gender"`
}

// HandleRegister creates an account. It does not sign the caller in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Fullname) == "" ||
			input.Password == "" || strings.TrimSpace(input.Gender) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		user, err := deps.DB.CreateUser(r.Context(), db.CreateUserParams{
			Email:        input.Email,
			Username:     input.Username,
			Fullname:     input.Fullname,
			Gender:       input.Gender,
			PasswordHash: string(hashedPassword),
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: user already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("user registered", "user_id", user.ID)
		resp.RespondCreated(w, r, user.Record)
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the session payload the client persists.
type loginResponse struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilepic"`
	Gender     string `json:"gender"`
	Token      string `json:"token"`
}

// HandleLogin verifies credentials, issues a JWT in the body and in the jwt cookie.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		dbUser, err := deps.DB.GetUserByEmail(r.Context(), input.Email)
		if err != nil {
			logx.Warn("login: user fetch failed", "email", input.Email, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "email", input.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		payload := &jwt.Payload{
			ID:       dbUser.ID,
			Username: dbUser.Username,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     jwt.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(jwt.UserIdentityExpiration / time.Second),
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteStrictMode,
		})

		resp.RespondSuccess(w, r, loginResponse{
			ID:         dbUser.ID,
			Username:   dbUser.Username,
			Fullname:   dbUser.Fullname,
			Email:      dbUser.Email,
			ProfilePic: dbUser.ProfilePic,
			Gender:     dbUser.Gender,
			Token:      token,
		})
	}
}

// HandleLogout expires the jwt cookie. Tokens are stateless, so nothing else is revoked.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     jwt.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteStrictMode,
		})

		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			logx.Info("user logged out", "user_id", identity.ID)
		}

		resp.RespondSuccess(w, r, map[string]string{"message": "Logged out successfully"})
	}
}
