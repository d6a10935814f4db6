// identity wraps the external identity provider. The rest of the codebase
// never sees provider SDK types, only Identity and the Provider interface,
// so tests can substitute a static provider.
package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/model"
	"gorm.io/gorm"
)

// Identity is the resolved caller identity for one request.
type Identity struct {
	// UserID is the provider's stable subject for the account.
	UserID string
	// Name is the account's display name.
	Name string
	// Email is the verified email if the provider exposes one.
	Email string
	// PhoneNumber is optional.
	PhoneNumber string
}

// Provider resolves an opaque access token into an Identity. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Authenticate returns the identity behind the token, or an error when
	// the token is missing, expired or forged.
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// EnsureUser creates the user record on first authenticated session. The
// existence check runs before the insert, so the first writer wins and a
// repeat call is a no-op returning the stored record; identity fields are
// immutable after creation except contact info.
func EnsureUser(db *gorm.DB, id *Identity) (*model.User, error) {
	var user model.User
	res := db.Model(&model.User{}).Where("id = ?", id.UserID).First(&user)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		// if the user doesn't exist, create the user.
		t := model.User{
			Id:          id.UserID,
			Name:        id.Name,
			Email:       id.Email,
			PhoneNumber: id.PhoneNumber,
			CreatedAt:   time.Now(),
		}
		if err := db.Create(&t).Error; err != nil {
			return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
		}
		return &t, nil
	}

	// otherwise
	return &user, nil
}
