// Package validators implements the per-fact-type value validators consulted
// before any fact is persisted.
package validators

import (
	"regexp"
	"sync"

	"factgate/pkg/apperrors"
)

// Validator decides whether a value is acceptable for a fact type.
type Validator interface {
	Validate(value string) bool
}

// Known validator names, referenced by fact-type definitions.
const (
	NameTrue  = "TrueValidator"
	NameNull  = "NullValidator"
	NameRegex = "RegexValidator"
)

// trueValidator accepts every value, including empty ones.
type trueValidator struct{}

func (trueValidator) Validate(string) bool { return true }

// nullValidator accepts any non-empty value.
type nullValidator struct{}

func (nullValidator) Validate(value string) bool { return value != "" }

// regexValidator accepts values fully matching its pattern.
type regexValidator struct {
	re *regexp.Regexp
}

func (v regexValidator) Validate(value string) bool { return v.re.MatchString(value) }

// Factory resolves and caches validators by name and parameter. Compiled
// regex validators are reused across requests.
type Factory struct {
	mu    sync.Mutex
	cache map[string]Validator
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{cache: map[string]Validator{}}
}

// Get returns the validator configured on a fact type. An unknown validator
// name or an uncompilable regex parameter is an invalid argument: the fact
// type cannot be satisfied by any value.
func (f *Factory) Get(name, parameter string) (Validator, error) {
	key := name + "\x00" + parameter

	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.cache[key]; ok {
		return v, nil
	}

	var v Validator
	switch name {
	case NameTrue:
		v = trueValidator{}
	case NameNull:
		v = nullValidator{}
	case NameRegex:
		re, err := regexp.Compile("^(?:" + parameter + ")$")
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid validator parameter").
				WithValidation("validatorParameter", "validator.parameter.not.valid")
		}
		v = regexValidator{re: re}
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown validator %q", name).
			WithValidation("validator", "validator.not.exist")
	}

	f.cache[key] = v
	return v, nil
}
