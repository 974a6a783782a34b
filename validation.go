package sdk

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// validateConfig reports the first invalid option as a ConfigError naming it.
func validateConfig(cfg config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &sdkerrors.ConfigError{
			Field: fe.Field(),
			Err:   fmt.Errorf("failed on the %q rule", fe.Tag()),
		}
	}
	return &sdkerrors.ConfigError{Err: err}
}
