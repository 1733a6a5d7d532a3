package providers

import (
	"errors"
	"fmt"
	"pickme/internal/structures"
	"time"

	"github.com/gookit/validate"
	"golang.org/x/text/language"
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
		return v.Errors
	}
	if cv.conf.Mirror.Mode == "file" && cv.conf.Mirror.FilePath == "" {
		return errors.New("mirror.filePath is required when mirror.mode is file")
	}
	if _, err := language.Parse(cv.conf.Locale.Collation); err != nil {
		return fmt.Errorf("invalid locale.collation %q: %w", cv.conf.Locale.Collation, err)
	}
	if _, err := time.LoadLocation(cv.conf.Locale.Timezone); err != nil {
		return fmt.Errorf("invalid locale.timezone %q: %w", cv.conf.Locale.Timezone, err)
	}
	return nil
}
