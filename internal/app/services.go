package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/service/admin"
	"github.com/Alijeyrad/consulto_backend/internal/service/auth"
	"github.com/Alijeyrad/consulto_backend/internal/service/booking"
	"github.com/Alijeyrad/consulto_backend/internal/service/chat"
	"github.com/Alijeyrad/consulto_backend/internal/service/healthrecord"
	"github.com/Alijeyrad/consulto_backend/internal/service/review"
	"github.com/Alijeyrad/consulto_backend/internal/service/user"
	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
	"github.com/Alijeyrad/consulto_backend/pkg/crypto"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	s3pkg "github.com/Alijeyrad/consulto_backend/pkg/s3"
	"github.com/Alijeyrad/consulto_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAuthService,
		ProvideUserService,
		ProvideBookingService,
		ProvideChatService,
		ProvideReviewService,
		ProvideHealthRecordService,
		ProvideAdminService,
	),
)

// RoleGranter mirrors account roles into casbin.
func RoleGranter(authz authorize.IAuthorization) auth.RoleGranter {
	return auth.RoleGranterFunc(func(ctx context.Context, userID uuid.UUID, role repo.Role) error {
		return authorize.AssignAccountRole(ctx, authz, userID.String(), string(role))
	})
}

func ProvideAuthService(
	store repo.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	authz authorize.IAuthorization,
	cfg *config.Config,
) auth.Service {
	return auth.New(
		store,
		auth.NewRedisSessions(rdb),
		paseto,
		password.NewFromCentral(cfg.Password),
		RoleGranter(authz),
		cfg.Authentication,
	)
}

func ProvideUserService(store repo.Store, cipher *crypto.Cipher, cfg *config.Config) user.Service {
	return user.New(store, cipher, cfg.Authentication.DefaultPhoneRegion)
}

func ProvideBookingService(store repo.Store, pub events.Publisher, cfg *config.Config) (booking.Service, error) {
	return booking.New(store, pub, cfg.Booking)
}

func ProvideChatService(store repo.Store, pub events.Publisher) chat.Service {
	return chat.New(store, pub)
}

func ProvideReviewService(store repo.Store, pub events.Publisher) review.Service {
	return review.New(store, pub)
}

func ProvideHealthRecordService(store repo.Store, s3 *s3pkg.Client) healthrecord.Service {
	// A nil *s3pkg.Client must not become a non-nil AttachmentStore.
	if s3 == nil {
		return healthrecord.New(store, nil)
	}
	return healthrecord.New(store, s3)
}

func ProvideAdminService(store repo.Store, pub events.Publisher) admin.Service {
	return admin.New(store, pub)
}
