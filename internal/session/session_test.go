package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/transport"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) GetProfile(ctx context.Context) (models.ProfileResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ProfileResponse), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, data models.LoginData) (models.AuthResponse, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(models.AuthResponse), args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, data models.RegisterData) (models.AuthResponse, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(models.AuthResponse), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context) (models.MessageResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.MessageResponse), args.Error(1)
}

var (
	ana         = &models.User{ID: "u1", Username: "ana", Email: "ana@example.com"}
	networkDown = &transport.APIError{Kind: transport.KindNetwork, Message: transport.NetworkErrorMessage}
)

func authenticated(t *testing.T, auth *mockAuth) *Manager {
	t.Helper()
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{Success: true, User: ana}, nil).Once()
	m := NewManager(auth, zerolog.Nop())
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, StateAuthenticated, m.State())
	return m
}

func TestNewManagerStartsLoading(t *testing.T) {
	m := NewManager(new(mockAuth), zerolog.Nop())
	assert.Equal(t, StateLoading, m.State())
	assert.True(t, m.Loading())
	assert.Nil(t, m.User())
}

func TestStartAuthenticates(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)

	assert.False(t, m.Loading())
	assert.Equal(t, "ana", m.User().Username)
	auth.AssertExpectations(t)
}

func TestStartFailureIsAnonymous(t *testing.T) {
	auth := new(mockAuth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)

	m := NewManager(auth, zerolog.Nop())
	err := m.Start(context.Background())

	assert.ErrorIs(t, err, networkDown)
	assert.Equal(t, StateAnonymous, m.State())
	assert.False(t, m.Loading())
	assert.Nil(t, m.User())
}

func TestCheckAuthUnsuccessfulBodyIsFailure(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{Success: false}, nil)

	err := m.CheckAuth(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Nil(t, m.User())
}

func TestCheckAuthFailureClearsUserByDefault(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)

	require.Error(t, m.CheckAuth(context.Background()))
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.User())
}

func TestCheckAuthPreserveOnFailureKeepsUser(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)

	for i := 0; i < 3; i++ {
		require.Error(t, m.CheckAuth(context.Background(), PreserveOnFailure()))
		assert.Equal(t, StateAuthenticated, m.State())
		assert.Equal(t, "u1", m.User().ID)
	}
}

func TestCheckAuthPreserveOnFailureStaysAnonymous(t *testing.T) {
	auth := new(mockAuth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)

	m := NewManager(auth, zerolog.Nop())
	require.Error(t, m.CheckAuth(context.Background(), PreserveOnFailure()))
	assert.Equal(t, StateAnonymous, m.State())
}

func TestCheckAuthReplacesUserWholesale(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	renamed := &models.User{ID: "u1", Username: "ana-maria", Email: "ana@example.com"}
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{Success: true, User: renamed}, nil)

	require.NoError(t, m.CheckAuth(context.Background()))
	assert.Equal(t, "ana-maria", m.User().Username)
}

func TestLoginSuccess(t *testing.T) {
	auth := new(mockAuth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)
	creds := models.LoginData{Email: "ana@example.com", Password: "secret1"}

	m := NewManager(auth, zerolog.Nop())
	_ = m.Start(context.Background())

	auth.On("Login", mock.Anything, creds).
		Run(func(mock.Arguments) { assert.True(t, m.Loading(), "loading while login is in flight") }).
		Return(models.AuthResponse{Success: true, User: ana}, nil)

	require.NoError(t, m.Login(context.Background(), creds))
	assert.False(t, m.Loading())
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "u1", m.User().ID)
}

func TestLoginSuccessWithoutUserIsFailure(t *testing.T) {
	auth := new(mockAuth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{}, networkDown)
	auth.On("Login", mock.Anything, mock.Anything).Return(models.AuthResponse{Success: true}, nil)

	m := NewManager(auth, zerolog.Nop())
	_ = m.Start(context.Background())

	err := m.Login(context.Background(), models.LoginData{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Equal(t, "Login failed", err.Error())
	assert.Equal(t, StateAnonymous, m.State())
}

func TestLoginRejectedUsesServerMessage(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Login", mock.Anything, mock.Anything).Return(models.AuthResponse{Success: false, Message: "Invalid credentials"}, nil)

	m := NewManager(auth, zerolog.Nop())
	err := m.Login(context.Background(), models.LoginData{})
	assert.EqualError(t, err, "Invalid credentials")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginTransportErrorLeavesStateUnchanged(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	rejected := &transport.APIError{Kind: transport.KindServer, Status: 401, Message: "Invalid email or password"}
	auth.On("Login", mock.Anything, mock.Anything).Return(models.AuthResponse{}, rejected)

	err := m.Login(context.Background(), models.LoginData{Email: "other@example.com"})
	assert.Same(t, rejected, err)
	assert.Equal(t, "u1", m.User().ID)
}

func TestRegisterSuccessAndFailure(t *testing.T) {
	auth := new(mockAuth)
	details := models.RegisterData{Username: "ana", Email: "ana@example.com", Password: "secret1"}
	auth.On("Register", mock.Anything, details).Return(models.AuthResponse{Success: true, User: ana}, nil).Once()
	auth.On("Register", mock.Anything, details).Return(models.AuthResponse{Success: true, Message: ""}, nil).Once()

	m := NewManager(auth, zerolog.Nop())
	require.NoError(t, m.Register(context.Background(), details))
	assert.Equal(t, "u1", m.User().ID)

	err := m.Register(context.Background(), details)
	assert.ErrorIs(t, err, ErrRegistrationFailed)
	assert.Equal(t, "Registration failed", err.Error())
	auth.AssertExpectations(t)
}

func TestLogoutAlwaysClears(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)
	auth.On("Logout", mock.Anything).Return(models.MessageResponse{}, errors.New("socket closed"))

	m.Logout(context.Background())
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.User())
	assert.False(t, m.Loading())
}

func TestLoginAndLogoutWithoutStart(t *testing.T) {
	auth := new(mockAuth)
	creds := models.LoginData{Email: "ana@example.com", Password: "secret1"}
	auth.On("Login", mock.Anything, creds).Return(models.AuthResponse{Success: true, User: ana}, nil)
	auth.On("Logout", mock.Anything).Return(models.MessageResponse{Success: true}, nil)

	m := NewManager(auth, zerolog.Nop())

	require.NoError(t, m.Login(context.Background(), creds))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.False(t, m.Loading())

	m.Logout(context.Background())
	assert.Equal(t, StateAnonymous, m.State())
	assert.False(t, m.Loading())
	assert.Nil(t, m.User())
	auth.AssertNotCalled(t, "GetProfile", mock.Anything)
}

func TestLogoutWithoutStartIsAnonymous(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Logout", mock.Anything).Return(models.MessageResponse{}, errors.New("socket closed"))

	m := NewManager(auth, zerolog.Nop())
	m.Logout(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.False(t, snap.Loading)
}

func TestLogoutRunsHook(t *testing.T) {
	auth := new(mockAuth)
	auth.On("GetProfile", mock.Anything).Return(models.ProfileResponse{Success: true, User: ana}, nil)
	auth.On("Logout", mock.Anything).Return(models.MessageResponse{Success: true}, nil)

	var userAtHook *models.User
	called := false
	var m *Manager
	m = NewManager(auth, zerolog.Nop(), OnLogout(func(context.Context) {
		called = true
		userAtHook = m.User()
	}))
	require.NoError(t, m.Start(context.Background()))

	m.Logout(context.Background())
	assert.True(t, called)
	assert.Nil(t, userAtHook)
}

func TestUserIsACopy(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)

	u := m.User()
	u.Username = "mallory"
	assert.Equal(t, "ana", m.User().Username)
}

func TestSnapshotJSON(t *testing.T) {
	auth := new(mockAuth)
	m := authenticated(t, auth)

	data, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"authenticated","loading":false,"user":{"_id":"u1","username":"ana","email":"ana@example.com","createdAt":"0001-01-01T00:00:00Z"}}`, string(data))
}
