package lemma

import "fmt"

// ConfigError reports resources of a language that could not be loaded.
type ConfigError struct {
	Lang string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("lemma: language %s: %v", e.Lang, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
