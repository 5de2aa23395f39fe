package providers

import (
	"fmt"

	"github.com/gookit/validate"
	"guildpulse/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if cv.conf.XP.MessageMin > cv.conf.XP.MessageMax {
		return fmt.Errorf("invalid config: xp.messageMin (%d) is greater than xp.messageMax (%d)",
			cv.conf.XP.MessageMin, cv.conf.XP.MessageMax)
	}
	return nil
}
