package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/app/services/auth"
	"apexrentals/internal/app/wiring"
	"apexrentals/internal/client"
	"apexrentals/internal/infra/config"
	ginserver "apexrentals/internal/infra/http/gin"
	"apexrentals/internal/infra/obs"
	"apexrentals/internal/infra/security"
	"apexrentals/internal/infra/storage/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewFactory()
	buses := wiring.Build(wiring.Deps{
		UoW:         factory,
		Outbox:      memory.NewOutbox(),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Currency:    "EUR",
		Now:         func() time.Time { return time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC) },
		Logger:      logger,
	})
	issuer, err := security.NewJWTIssuer("0123456789abcdef0123456789abcdef", "test")
	require.NoError(t, err)
	svc := &auth.Service{
		Users:      factory.UsersRepo,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     issuer,
		SessionTTL: time.Hour,
	}
	cfg := config.Defaults()
	cfg.Env = "test"
	router := ginserver.NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: svc},
		Assets:         ginserver.AssetHandler{Commands: buses.Commands, Queries: buses.Queries},
		Availability:   ginserver.AvailabilityHandler{Queries: buses.Queries},
		Booking:        ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Me:             ginserver.MeHandler{Queries: buses.Queries},
		Reviews:        ginserver.ReviewsHandler{Commands: buses.Commands, Queries: buses.Queries},
		AuthMiddleware: ginserver.AuthMiddleware{Service: svc}.Handle,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientBookingFlow(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	api, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ownerAuth, err := api.Register(ctx, client.RegisterRequest{
		Email: "owner@example.com", Name: "Owner", Password: "long-enough", Role: client.Ptr("owner"),
	})
	require.NoError(t, err)
	owner := client.Credential{Token: ownerAuth.Token}

	clientAuth, err := api.Register(ctx, client.RegisterRequest{Email: "guest@example.com", Name: "Guest", Password: "long-enough"})
	require.NoError(t, err)
	guest := client.Credential{Token: clientAuth.Token}

	asset, err := api.CreateAsset(ctx, owner, client.CreateAssetRequest{
		Title: "Gulfstream", Type: "jet", PricePerDay: 12000, Location: "Geneva", Capacity: client.Ptr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", asset.Currency)

	avail, err := api.CheckAvailability(ctx, client.Anonymous(), asset.ID, client.AvailabilityRequest{StartDate: "2030-03-10", EndDate: "2030-03-12"})
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, int64(2400000), avail.Total.AmountCents)

	booking, err := api.CreateBooking(ctx, guest, client.CreateBookingRequest{
		AssetID: asset.ID, StartDate: "2030-03-10", EndDate: "2030-03-12", IdempotencyKey: "once",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", booking.Status)

	_, err = api.CreateBooking(ctx, guest, client.CreateBookingRequest{AssetID: asset.ID, StartDate: "2030-03-11", EndDate: "2030-03-13"})
	require.ErrorIs(t, err, client.ErrBookingConflict)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = api.TransitionBooking(ctx, guest, booking.ID, client.TransitionRequest{Status: "confirmed"})
	require.ErrorIs(t, err, client.ErrInvalidTransition)

	confirmed, err := api.TransitionBooking(ctx, owner, booking.ID, client.TransitionRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)

	windows, err := api.BookingWindows(ctx, client.Anonymous(), asset.ID, "confirmed")
	require.NoError(t, err)
	require.Len(t, windows.Items, 1)
	assert.Equal(t, "2030-03-10", windows.Items[0].StartDate)

	mine, err := api.MyBookings(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, mine.Made, 1)

	eligibility, err := api.ReviewEligibility(ctx, guest, booking.ID)
	require.NoError(t, err)
	assert.False(t, eligibility.CanReview)
	assert.Equal(t, "confirmed", eligibility.Booking.Status)

	myReviews, err := api.MyReviews(ctx, guest)
	require.NoError(t, err)
	assert.Zero(t, myReviews.TotalGiven)

	ownerReviews, err := api.UserReviews(ctx, client.Anonymous(), ownerAuth.User.ID)
	require.NoError(t, err)
	assert.Zero(t, ownerReviews.Total)

	_, err = api.UserReviews(ctx, client.Anonymous(), "ghost")
	require.ErrorIs(t, err, client.ErrNotFound)

	_, err = api.MyBookings(ctx, client.Anonymous())
	require.ErrorIs(t, err, client.ErrUnauthenticated)

	require.NoError(t, api.Logout(ctx, guest))
	_, err = api.Me(ctx, guest)
	require.ErrorIs(t, err, client.ErrUnauthenticated)
}

func TestRequestsValidateBeforeSending(t *testing.T) {
	api, err := client.New("http://127.0.0.1:1")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = api.CreateBooking(ctx, client.Credential{Token: "t"}, client.CreateBookingRequest{AssetID: "a", StartDate: "10/03/2030", EndDate: "2030-03-12"})
	require.ErrorIs(t, err, client.ErrInvalidRequest)

	_, err = api.TransitionBooking(ctx, client.Credential{Token: "t"}, "b", client.TransitionRequest{Status: "archived"})
	require.ErrorIs(t, err, client.ErrInvalidRequest)

	_, err = api.Register(ctx, client.RegisterRequest{Email: "x@example.com", Name: "X", Password: "long-enough", Role: client.Ptr("admin")})
	require.ErrorIs(t, err, client.ErrInvalidRequest)

	assert.NoError(t, client.UpdateAssetRequest{}.Validate())
	assert.Error(t, client.UpdateAssetRequest{PricePerDay: client.Ptr(-1.0)}.Validate())
	assert.NoError(t, client.SearchAssetsRequest{Type: client.Ptr("yacht"), MinPrice: client.Ptr(100.0)}.Validate())
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := client.New("  ")
	assert.ErrorIs(t, err, client.ErrBaseURLRequired)
}

func TestAPIErrorMatchesByCode(t *testing.T) {
	err := error(&client.APIError{Status: 409, Code: "BookingConflict", Message: "overlap"})
	assert.ErrorIs(t, err, client.ErrBookingConflict)
	assert.NotErrorIs(t, err, client.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "409")
}
