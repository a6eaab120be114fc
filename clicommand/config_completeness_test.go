package clicommand

import (
	"strings"
	"testing"

	"github.com/killfeed/deploy-tools/cliconfig"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type configCommandPair struct {
	Config  any
	Command cli.Command
}

var commandConfigPairs = []configCommandPair{
	{Config: InjectSecretsConfig{}, Command: InjectSecretsCommand},
	{Config: PreTagConfig{}, Command: PreTagCommand},
}

func TestAllCommandConfigStructsHaveCorrespondingCLIFlags(t *testing.T) {
	t.Parallel()

	for _, pair := range commandConfigPairs {
		flagNames := make(map[string]struct{}, len(pair.Command.Flags))
		for _, flag := range pair.Command.Flags {
			flagNames[flag.GetName()] = struct{}{}
		}

		fields, err := reflections.FieldsDeep(pair.Config)
		if err != nil {
			t.Fatalf("getting fields for type %T: %v", pair.Config, err)
		}

		cliStructTags := make(map[string]struct{}, len(fields))
		for _, field := range fields {
			cliName, err := reflections.GetFieldTag(pair.Config, field, "cli")
			if err != nil {
				t.Fatalf("getting cli tag for field %s of %T: %v", field, pair.Config, err)
			}

			if strings.HasPrefix(cliName, "arg:") {
				continue
			}

			cliStructTags[cliName] = struct{}{}

			if _, ok := flagNames[cliName]; !ok {
				t.Errorf("field %s of %T has cli tag %s, but no corresponding CLI flag", field, pair.Config, cliName)
			}
		}

		for tag := range flagNames {
			if _, ok := cliStructTags[tag]; !ok {
				t.Errorf("CLI flag %s has no corresponding field in %T", tag, pair.Config)
			}
		}
	}
}

func TestAllFlagsHaveEnvVars(t *testing.T) {
	t.Parallel()

	for _, pair := range commandConfigPairs {
		for _, flag := range pair.Command.Flags {
			envVar, err := reflections.GetField(flag, "EnvVar")
			if err != nil {
				t.Fatalf("getting EnvVar of flag %s: %v", flag.GetName(), err)
			}

			want := cliconfig.EnvVar(flag.GetName())
			if first, _, _ := strings.Cut(envVar.(string), ","); first != want {
				t.Errorf("flag %s of command %s has env var %q, want %q", flag.GetName(), pair.Command.Name, envVar, want)
			}
		}
	}
}

func TestAllCommandsAreTestedForConfigCompleteness(t *testing.T) {
	t.Parallel()

	for _, command := range DeployToolsCommands {
		found := false
		for _, pair := range commandConfigPairs {
			if pair.Command.FullName() == command.FullName() {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("command %q is not being tested for config completeness in config_completeness_test.go\n Add it and its associated config struct to the commandConfigPairs slice in config_completeness_test.go", command.FullName())
		}
	}
}
