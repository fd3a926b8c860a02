package release

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	seasonTokenPattern  = regexp.MustCompile(`^S\d{2,}$`)
	episodeTokenPattern = regexp.MustCompile(`^E\d{2,}$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func candidateValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
			return seasonTokenPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("episode", func(fl validator.FieldLevel) bool {
			return episodeTokenPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate reports every field of c that is missing or malformed.
func Validate(c Candidate) error {
	err := candidateValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid release: %s", strings.Join(problems, ", "))
}

// Normalize canonicalizes every field of c in place and returns it.
// Season and episode tokens keep their numbers but gain S/E prefixes and padding.
func Normalize(c Candidate) Candidate {
	c.Title = strings.Join(strings.Fields(c.Title), " ")
	if season, ok := NormalizeSeasonToken(c.Season); ok {
		c.Season = season
	}
	if episode, ok := NormalizeEpisodeToken(c.Episode); ok {
		c.Episode = episode
	}
	c.Quality = NormalizeQuality(c.Quality)
	c.Audio = NormalizeAudio(c.Audio)
	c.URL = strings.TrimSpace(c.URL)
	return c
}
