package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	authv1 "github.com/Miraines/MoonyAndStarry/session-service/api/auth/v1"
	pgrepo "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/postgres"
	redisrepo "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/redis"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/grpc/middleware"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/guard"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/hash"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/jwt"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Account{}))
	accounts := pgrepo.NewPostgresAccountRepo(db)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	tokens := redisrepo.NewRedisTokenRepo(rdb)

	hasher, err := hash.NewArgon2Hasher(&argon2id.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	}, "")
	require.NoError(t, err)
	signer, err := jwt.NewSigner(&config.Config{
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    time.Hour,
	})
	require.NoError(t, err)

	svc := appsvc.New(accounts, hasher, signer, validator.New(), zap.NewNop(), nil)
	return NewHandler(svc, guard.New(signer, svc, tokens), zap.NewNop(),
		map[string]Pinger{"db": accounts, "redis": tokens})
}

func dial(t *testing.T, h *Handler) authv1.AuthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.ChainUnaryServer(zap.NewNop())))
	authv1.RegisterAuthServer(srv, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return authv1.NewAuthClient(conn)
}

func TestGRPC_RoundTrip(t *testing.T) {
	client := dial(t, newHandler(t))
	ctx := context.Background()

	reg, err := client.Register(ctx, &authv1.RegisterRequest{Username: "alice", Password: "Secr3tPass!"})
	require.NoError(t, err)
	require.Equal(t, []string{model.RoleUser}, reg.Account.Roles)

	login, err := client.Login(ctx, &authv1.LoginRequest{Username: "alice", Password: "Secr3tPass!"})
	require.NoError(t, err)
	require.Equal(t, reg.Account.Id, login.UserId)
	require.Greater(t, login.RefreshTtl, login.AccessTtl)

	v, err := client.Validate(ctx, &authv1.ValidateRequest{AccessToken: login.AccessToken})
	require.NoError(t, err)
	require.Equal(t, "alice", v.Username)

	// metadata wins over the request field
	mdCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+login.RefreshToken)
	refreshed, err := client.Refresh(mdCtx, &authv1.RefreshRequest{RefreshToken: "ignored"})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = client.Refresh(ctx, &authv1.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Equal(t, codes.PermissionDenied, status.Code(err), "replayed refresh token")

	_, err = client.Refresh(ctx, &authv1.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	require.Equal(t, codes.PermissionDenied, status.Code(err), "session was revoked by the replay")

	out, err := client.Logout(ctx, &authv1.LogoutRequest{AccessToken: refreshed.AccessToken})
	require.NoError(t, err)
	require.True(t, out.Success)

	_, err = client.Validate(ctx, &authv1.ValidateRequest{AccessToken: refreshed.AccessToken})
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	hc, err := client.HealthCheck(ctx, &authv1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, authv1.HealthStatus_SERVING, hc.Status)
}

func TestGRPC_Errors(t *testing.T) {
	client := dial(t, newHandler(t))
	ctx := context.Background()

	_, err := client.Register(ctx, &authv1.RegisterRequest{Username: "al", Password: "x"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Register(ctx, &authv1.RegisterRequest{Username: "alice", Password: "Secr3tPass!"})
	require.NoError(t, err)
	_, err = client.Register(ctx, &authv1.RegisterRequest{Username: "alice", Password: "Secr3tPass!"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.Register(ctx, &authv1.RegisterRequest{
		Username: "mallory", Password: "Secr3tPass!", Roles: []string{model.RoleAdmin},
	})
	require.Equal(t, codes.PermissionDenied, status.Code(err), "sign-up cannot grant admin")

	_, err = client.Login(ctx, &authv1.LoginRequest{Username: "alice", Password: "nope"})
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Validate(ctx, &authv1.ValidateRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Refresh(ctx, &authv1.RefreshRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHandler_HealthCheckNotServing(t *testing.T) {
	h := &Handler{log: zap.NewNop(), checks: map[string]Pinger{
		"db": pingerFunc(func(context.Context) error { return errors.New("down") }),
	}}
	resp, err := h.HealthCheck(context.Background(), &authv1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, authv1.HealthStatus_NOT_SERVING, resp.Status)
}

func TestMapError(t *testing.T) {
	h := &Handler{log: zap.NewNop()}
	cases := map[error]codes.Code{
		authErrors.NewInvalidArgument("x"): codes.InvalidArgument,
		authErrors.ErrInvalidCredentials:   codes.Unauthenticated,
		authErrors.ErrTokenSignature:       codes.Unauthenticated,
		authErrors.ErrAccountInactive:      codes.PermissionDenied,
		authErrors.ErrSessionRevoked:       codes.PermissionDenied,
		authErrors.ErrForbidden:            codes.PermissionDenied,
		authErrors.ErrAlreadyExists:        codes.AlreadyExists,
		authErrors.ErrNotFound:             codes.NotFound,
		errors.New("x"):                    codes.Internal,
	}
	for err, want := range cases {
		st, _ := status.FromError(h.mapError(err))
		require.Equal(t, want, st.Code(), err.Error())
	}

	st, _ := status.FromError(h.mapError(authErrors.ErrTokenExpired))
	require.Equal(t, "invalid token", st.Message(), "token sub-kinds stay internal")
}
