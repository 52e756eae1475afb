package envutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// EnvironmentVariablesError is raised when an environment variable is improperly formatted.
type EnvironmentVariablesError struct {
	Reason    string
	RawEnvVar string
}

// Error implements error.
func (eev EnvironmentVariablesError) Error() string {
	return fmt.Sprintf("%s: %s", eev.Reason, eev.RawEnvVar)
}

// FromEnvironment consumes the environment and returns it as a key-value map.
// A nil env reads the process environment.
func FromEnvironment(env []string) (map[string]string, error) {
	results := map[string]string{}

	if env == nil {
		env = os.Environ()
	}

	const expectedArgs = 2

	for _, keyval := range env {
		splitKeyVal := strings.SplitN(keyval, "=", expectedArgs)
		if len(splitKeyVal) != expectedArgs {
			return results, error(EnvironmentVariablesError{
				Reason:    "Could not find an equals value to split on",
				RawEnvVar: keyval,
			})
		}
		results[splitKeyVal[0]] = splitKeyVal[1]
	}

	return results, nil
}

// EnvName returns the environment variable consulted for a flag name.
func EnvName(prefix string, flagName string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(flagName))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// Resolver builds a kong.Resolver which supplies flag values from env rather than
// the process environment, so the command line can be driven inline from tests.
func Resolver(env map[string]string, prefix string) kong.Resolver {
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (interface{}, error) {
		value, ok := env[EnvName(prefix, flag.Name)]
		if !ok {
			return nil, nil
		}
		return value, nil
	})
}
