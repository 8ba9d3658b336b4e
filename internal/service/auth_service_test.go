package service_test

import (
	"context"
	"testing"
	"time"

	"adriani/internal/config"
	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8, JWTRefreshHours: 24}
}

func seedUsuario(t *testing.T, repo *stubUsuarioRepo, username, password, rol string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{
		ID: uuid.New(), Username: username, Nombre: "Usuario de prueba",
		PasswordHash: string(hash), Rol: rol, Activo: true,
	}
	repo.users[username] = u
	return u
}

func signToken(t *testing.T, userID, tipo string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "rol": "cobrador", "tipo": tipo,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	repo := newStubUsuarioRepo()
	seedUsuario(t, repo, "admin", "password123", "administrador")
	svc := service.NewAuthService(repo, newTestCfg())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: " admin ", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "administrador", resp.User.Rol)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrCredenciales)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "noexiste", Password: "whatever"})
	assert.ErrorIs(t, err, service.ErrCredenciales)
}

func TestRefresh(t *testing.T) {
	repo := newStubUsuarioRepo()
	u := seedUsuario(t, repo, "super1", "pass1234", "supervisor")
	svc := service.NewAuthService(repo, newTestCfg())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "super1", Password: "pass1234"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.Username, resp.User.Username)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), login.AccessToken)
		assert.Error(t, err)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "this.is.garbage")
		assert.Error(t, err)
	})
	t.Run("expired", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), signToken(t, u.ID.String(), "refresh", -time.Second))
		assert.Error(t, err)
	})
	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, svc.DesactivarUsuario(context.Background(), u.ID))
		_, err := svc.Refresh(context.Background(), login.RefreshToken)
		assert.Error(t, err)
	})
}

func TestUsuariosCRUD(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := service.NewAuthService(repo, newTestCfg())

	creado, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "cobrador1", Nombre: "Cobrador Uno", Password: "securepass", Rol: "cobrador",
	})
	require.NoError(t, err)
	assert.Equal(t, "cobrador", creado.Rol)

	_, err = svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "cobrador1", Nombre: "Otro", Password: "securepass", Rol: "cobrador",
	})
	assert.ErrorIs(t, err, service.ErrDuplicado)

	id := uuid.MustParse(creado.ID)
	act, err := svc.ActualizarUsuario(context.Background(), id, dto.ActualizarUsuarioRequest{Rol: "supervisor", Password: "otraclave1"})
	require.NoError(t, err)
	assert.Equal(t, "supervisor", act.Rol)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "cobrador1", Password: "otraclave1"})
	assert.NoError(t, err)

	list, err := svc.ListarUsuarios(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ActualizarUsuario(context.Background(), uuid.New(), dto.ActualizarUsuarioRequest{})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}
