// Package cliconfig fills config structs from command line flags, their
// environment variables and an optional config file.
//
// Fields are bound with struct tags:
//
//	Root        string `cli:"root" normalize:"filepath"`
//	Environment string `cli:"arg:0" label:"environment" validate:"required"`
package cliconfig

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hengadev/errsx"
	"github.com/killfeed/deploy-tools/logger"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type Loader struct {
	// The context that is passed when using a urfave/cli action
	CLI *cli.Context

	// The struct that the config values will be loaded into
	Config any

	// The logger used
	Logger logger.Logger

	// A slice of paths to files that should be used as config files
	DefaultConfigFilePaths []string

	// The file that was used when loading this configuration
	File *File
}

// Matches "arg:index" (specific non-flag arg) or "arg:*" (all non-flag args).
var argCLINameRE = regexp.MustCompile(`^arg:(\d+|\*)$`)

// Load fills l.Config. Flags and their environment variables beat values
// from the config file, which beat flag defaults. Warnings are returned for
// config file keys that don't match any field. Validation failures for all
// fields are collected into a single errsx.Map error.
func (l *Loader) Load() (warnings []string, err error) {
	if path := l.CLI.String("config"); path != "" {
		file := File{Path: path}

		// A file passed in explicitly has to exist.
		if !file.Exists() {
			absolutePath, _ := file.AbsolutePath()
			return warnings, fmt.Errorf("a configuration file could not be found at: %q", absolutePath)
		}
		l.File = &file
	} else {
		for _, path := range l.DefaultConfigFilePaths {
			file := File{Path: path}
			if file.Exists() {
				l.File = &file
				break
			}
		}
	}

	if l.File != nil {
		if err := l.File.Load(); err != nil {
			return warnings, fmt.Errorf("loading config file: %w", err)
		}
		if l.Logger != nil {
			l.Logger.Debug("Loaded config file %s", l.File.Path)
		}
	}

	fields, err := reflections.FieldsDeep(l.Config)
	if err != nil {
		return warnings, fmt.Errorf("listing config fields: %w", err)
	}

	var known []string
	var validationErrs errsx.Map

	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli")
		if cliName != "" {
			known = append(known, cliName)
			if err := l.setFieldValueFromCLI(fieldName, cliName); err != nil {
				return warnings, fmt.Errorf("setting config field %s: %w", fieldName, err)
			}
		}

		normalization, _ := reflections.GetFieldTag(l.Config, fieldName, "normalize")
		if normalization != "" {
			if err := l.normalizeField(fieldName, normalization); err != nil {
				return warnings, fmt.Errorf("normalizing config field %s: %w", fieldName, err)
			}
		}

		validationRules, _ := reflections.GetFieldTag(l.Config, fieldName, "validate")
		if validationRules != "" {
			label, _ := reflections.GetFieldTag(l.Config, fieldName, "label")
			if label == "" {
				// Use the cli name if it exists, otherwise the struct
				// field name.
				if cliName != "" {
					label = cliName
				} else {
					label = fieldName
				}
			}

			if err := l.validateField(fieldName, label, validationRules); err != nil {
				validationErrs.Set(label, err)
			}
		}
	}

	if l.File != nil {
		for key := range l.File.Config {
			if !slices.Contains(known, key) {
				warnings = append(warnings, fmt.Sprintf("Unknown option %q in config file %s", key, l.File.Path))
			}
		}
		slices.Sort(warnings)
	}

	if len(validationErrs) > 0 {
		return warnings, validationErrs.AsError()
	}
	return warnings, nil
}

func (l Loader) setFieldValueFromCLI(fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}

	var value any

	if argMatch := argCLINameRE.FindStringSubmatch(cliName); len(argMatch) > 0 {
		if argMatch[1] == "*" {
			value = []string(l.CLI.Args())
		} else {
			argIndex, err := strconv.Atoi(argMatch[1])
			if err != nil {
				return fmt.Errorf("converting string to int: %w", err)
			}

			// Only set the value if the args are long enough for
			// the position to exist.
			if len(l.CLI.Args()) > argIndex {
				value = l.CLI.Args()[argIndex]
			}
		}

		// Otherwise see if we can pull it from an environment variable.
		if value == nil {
			if envName, _ := reflections.GetFieldTag(l.Config, fieldName, "env"); envName != "" {
				if envValue, ok := os.LookupEnv(envName); ok {
					value = envValue
				}
			}
		}
	} else {
		// Start with whatever the config file says.
		if l.File != nil {
			if configFileValue, ok := l.File.Config[cliName]; ok {
				switch fieldKind {
				case reflect.String:
					value = configFileValue
				case reflect.Slice:
					value = strings.Split(configFileValue, ",")
				case reflect.Bool:
					b, err := strconv.ParseBool(configFileValue)
					if err != nil {
						return fmt.Errorf("config file value %s=%q: %w", cliName, configFileValue, err)
					}
					value = b
				case reflect.Int:
					i, err := strconv.Atoi(configFileValue)
					if err != nil {
						return fmt.Errorf("config file value %s=%q: %w", cliName, configFileValue, err)
					}
					value = i
				default:
					return fmt.Errorf("unable to convert string to type %s", fieldKind)
				}
			}
		}

		// A flag set on the command line (or by its env var) wins, and the
		// flag default applies when nothing else did.
		if value == nil || l.cliValueIsSet(cliName) {
			switch fieldKind {
			case reflect.String:
				value = l.CLI.String(cliName)
			case reflect.Slice:
				value = l.CLI.StringSlice(cliName)
			case reflect.Bool:
				value = l.CLI.Bool(cliName)
			case reflect.Int:
				value = l.CLI.Int(cliName)
			default:
				return fmt.Errorf("unable to handle type: %s", fieldKind)
			}
		}
	}

	if value != nil {
		if err := reflections.SetField(l.Config, fieldName, value); err != nil {
			return fmt.Errorf("setting value field %q to %q: %w", fieldName, value, err)
		}
	}

	return nil
}

// Errorf returns an error pointing the user at the command's help.
func (l Loader) Errorf(format string, v ...any) error {
	name := l.CLI.App.Name
	if cmd := l.CLI.Command.Name; cmd != "" && cmd != name {
		name += " " + cmd
	}
	suffix := fmt.Sprintf(" See: `%s --help`", name)
	return fmt.Errorf(format+suffix, v...)
}

func (l Loader) cliValueIsSet(cliName string) bool {
	if l.CLI.IsSet(cliName) {
		return true
	}

	// cli.Context#IsSet only checks to see if the flag was set on the command
	// line, not via the environment, so look up the flag's EnvVar as well.
	for _, flag := range l.CLI.Command.Flags {
		name, _ := reflections.GetField(flag, "Name")
		envVar, _ := reflections.GetField(flag, "EnvVar")
		if name != cliName {
			continue
		}
		if envVarStr, ok := envVar.(string); ok && envVarStr != "" {
			for e := range strings.SplitSeq(envVarStr, ",") {
				if os.Getenv(strings.TrimSpace(e)) != "" {
					return true
				}
			}
		}
	}

	return false
}

func (l Loader) fieldValueIsEmpty(fieldName string) bool {
	value, _ := reflections.GetField(l.Config, fieldName)
	return reflect.ValueOf(value).IsZero()
}

func (l Loader) validateField(fieldName, label, validationRules string) error {
	for rule := range strings.SplitSeq(validationRules, ",") {
		switch rule {
		case "required":
			if l.fieldValueIsEmpty(fieldName) {
				return l.Errorf("Missing %s.", label)
			}

		case "file-exists":
			value, _ := reflections.GetField(l.Config, fieldName)
			if valueAsString, ok := value.(string); ok && valueAsString != "" {
				if _, err := os.Stat(valueAsString); err != nil {
					return fmt.Errorf("couldn't find %s located at %s: %w", label, valueAsString, err)
				}
			}

		default:
			return fmt.Errorf("unknown config validation rule %q", rule)
		}
	}

	return nil
}

func (l Loader) normalizeField(fieldName, normalization string) error {
	value, _ := reflections.GetField(l.Config, fieldName)
	fieldKind, _ := reflections.GetFieldKind(l.Config, fieldName)

	switch normalization {
	case "filepath":
		if fieldKind != reflect.String {
			return fmt.Errorf("filepath normalization only works on string fields")
		}
		normalizedPath, err := NormalizeFilePath(value.(string))
		if err != nil {
			return err
		}
		return reflections.SetField(l.Config, fieldName, normalizedPath)

	case "list":
		if fieldKind != reflect.Slice {
			return fmt.Errorf("list normalization only works on slice fields")
		}
		valueAsSlice, ok := value.([]string)
		if !ok {
			return fmt.Errorf("list normalization only works on []string fields")
		}
		normalizedSlice := []string{}
		for _, v := range valueAsSlice {
			// Split values with commas into fields
			for normalized := range strings.SplitSeq(v, ",") {
				if normalized = strings.TrimSpace(normalized); normalized != "" {
					normalizedSlice = append(normalizedSlice, normalized)
				}
			}
		}
		return reflections.SetField(l.Config, fieldName, normalizedSlice)

	default:
		return fmt.Errorf("unknown normalization %q", normalization)
	}
}
